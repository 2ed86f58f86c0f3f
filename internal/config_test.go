package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestImportConfig_RequiresDropDir(t *testing.T) {
	cfg := ImportConfig{DropDir: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty drop dir should fail validation")
	}
}

func TestCacheConfig_ZeroMeansDefault(t *testing.T) {
	cfg := CacheConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero cache config should pass: %v", err)
	}
	if cfg.MaxAge() != 0 || cfg.Budget() != 0 {
		t.Error("zero values should map to zero durations (service applies defaults)")
	}
}

func TestCacheConfig_Conversions(t *testing.T) {
	cfg := CacheConfig{MaxAgeSeconds: 300, MaxIdleMinutes: 30, SweepSeconds: 60, BudgetMB: 50}
	if cfg.MaxAge() != 5*time.Minute {
		t.Errorf("MaxAge = %v", cfg.MaxAge())
	}
	if cfg.MaxIdle() != 30*time.Minute {
		t.Errorf("MaxIdle = %v", cfg.MaxIdle())
	}
	if cfg.SweepInterval() != time.Minute {
		t.Errorf("SweepInterval = %v", cfg.SweepInterval())
	}
	if cfg.Budget() != 50<<20 {
		t.Errorf("Budget = %d", cfg.Budget())
	}
}

func TestCacheConfig_RejectsNegative(t *testing.T) {
	cfg := CacheConfig{MaxAgeSeconds: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative max age should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
