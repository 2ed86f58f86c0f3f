package csvnorm

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/lisearch/internal/apperr"
)

var header = []string{"First Name", "Last Name", "Email Address", "Company", "Position", "Connected On"}

func TestNormalize_RoundTrip(t *testing.T) {
	rows := [][]string{
		header,
		{"Jane", "Doe", "j@x.com", "Acme", "Engineer", "2020-01-01"},
		{"John", "Roe", "", "Acme", "Manager", ""},
	}
	contacts, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("len(contacts) = %d, want 2", len(contacts))
	}
	for _, c := range contacts {
		want := c.FirstName + " " + c.LastName
		if c.FullName != want {
			t.Errorf("fullName = %q, want %q", c.FullName, want)
		}
	}
	if contacts[0].EmailAddress != "j@x.com" || contacts[0].Company != "Acme" {
		t.Errorf("first contact = %+v", contacts[0])
	}
}

func TestNormalize_TrimsCells(t *testing.T) {
	rows := [][]string{
		header,
		{"  Jane ", " Doe", " j@x.com ", " Acme ", " Engineer ", " 2020-01-01 "},
	}
	contacts, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	c := contacts[0]
	if c.FirstName != "Jane" || c.LastName != "Doe" || c.FullName != "Jane Doe" {
		t.Errorf("names not trimmed: %+v", c)
	}
	if c.Company != "Acme" || c.Position != "Engineer" || c.ConnectedOn != "2020-01-01" {
		t.Errorf("fields not trimmed: %+v", c)
	}
}

func TestNormalize_DropRule(t *testing.T) {
	rows := [][]string{
		header,
		{"", "", "", "", "", ""},     // both names empty: dropped
		{"  ", "\t", "", "", "", ""}, // whitespace only: dropped
		{"Jane", "", "", "", "", ""}, // one name present: retained
		{"", "Roe", "", "", "", ""},  // one name present: retained
	}
	contacts, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("len(contacts) = %d, want 2", len(contacts))
	}
	if contacts[0].FullName != "Jane " {
		t.Errorf("fullName = %q, want %q", contacts[0].FullName, "Jane ")
	}
}

func TestNormalize_NoHeader(t *testing.T) {
	_, err := Normalize(nil)
	var fe *apperr.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestNormalize_ShortRowIsFormatError(t *testing.T) {
	rows := [][]string{
		header,
		{"OnlyOneCell"},
	}
	_, err := Normalize(rows)
	var fe *apperr.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestNormalize_HeaderOnly(t *testing.T) {
	contacts, err := Normalize([][]string{header})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(contacts) != 0 {
		t.Errorf("len(contacts) = %d, want 0", len(contacts))
	}
}

func TestNormalize_ExtraFields(t *testing.T) {
	rows := [][]string{
		append(append([]string{}, header...), "Profile URL", "Shared Groups"),
		{"Jane", "Doe", "", "", "", "", "https://example.com/jane", "gophers"},
		{"John", "Roe", "", "", "", ""}, // short row: extras default to ""
	}
	contacts, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := contacts[0].ExtraFields["profileURL"]; got != "https://example.com/jane" {
		t.Errorf("profileURL = %q", got)
	}
	if got := contacts[0].ExtraFields["sharedGroups"]; got != "gophers" {
		t.Errorf("sharedGroups = %q", got)
	}
	if got := contacts[1].ExtraFields["profileURL"]; got != "" {
		t.Errorf("short row extra = %q, want empty", got)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	rows := [][]string{
		header,
		{"Jane", "Doe", "j@x.com", "Acme", "Engineer", "2020-01-01"},
	}
	a, _ := Normalize(rows)
	b, _ := Normalize(rows)
	if len(a) != len(b) || a[0].FullName != b[0].FullName || a[0].Company != b[0].Company {
		t.Errorf("normalize not deterministic: %+v vs %+v", a, b)
	}
}

func TestReadCSV(t *testing.T) {
	raw := "First Name,Last Name,Email Address,Company,Position,Connected On\nJane,Doe,j@x.com,Acme,Engineer,2020-01-01\n"
	rows, err := ReadCSV(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1][3] != "Acme" {
		t.Errorf("company cell = %q", rows[1][3])
	}
}

func TestCamelCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"First Name", "firstName"},
		{"Connected On", "connectedOn"},
		{"URL", "uRL"},
		{"  spaced  out ", "spacedOut"},
		{"Örtliche Gruppe", "örtlicheGruppe"},
		{"prénom écran", "prénomÉcran"},
		{"", ""},
	}
	for _, c := range cases {
		if got := camelCase(c.in); got != c.want {
			t.Errorf("camelCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
