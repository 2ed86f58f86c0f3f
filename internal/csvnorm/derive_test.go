package csvnorm

import (
	"testing"

	"github.com/starford/lisearch/internal/models"
)

func contactsFixture() []models.Contact {
	return []models.Contact{
		{FullName: "Jane Doe", Company: "Acme", Position: "Engineer"},
		{FullName: "John Roe", Company: "Acme", Position: "Manager"},
		{FullName: "Ada Byron", Company: "Babbage & Co", Position: "Engineer"},
		{FullName: "No Company", Company: "", Position: "Freelancer"},
		{FullName: "No Position", Company: "Acme", Position: ""},
	}
}

func TestDeriveEmployers_Grouping(t *testing.T) {
	employers := DeriveEmployers(contactsFixture())
	if len(employers) != 2 {
		t.Fatalf("len(employers) = %d, want 2", len(employers))
	}
	// First-seen order preserved.
	if employers[0].Company != "Acme" || employers[1].Company != "Babbage & Co" {
		t.Errorf("order = [%s, %s]", employers[0].Company, employers[1].Company)
	}
	if len(employers[0].Connections) != 3 {
		t.Errorf("Acme connections = %d, want 3", len(employers[0].Connections))
	}
	ref := employers[0].Connections[0]
	if ref.FullName != "Jane Doe" || ref.Position != "Engineer" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestDeriveEmployers_ConnectionCountInvariant(t *testing.T) {
	contacts := contactsFixture()
	withCompany := 0
	for _, c := range contacts {
		if c.Company != "" {
			withCompany++
		}
	}
	sum := 0
	for _, e := range DeriveEmployers(contacts) {
		if len(e.Connections) == 0 {
			t.Errorf("employer %q has no connections", e.Company)
		}
		sum += len(e.Connections)
	}
	if sum != withCompany {
		t.Errorf("sum(connections) = %d, want %d", sum, withCompany)
	}
}

func TestDerivePositions_UniqueTitles(t *testing.T) {
	positions := DerivePositions(contactsFixture())
	if len(positions) != 3 {
		t.Fatalf("len(positions) = %d, want 3", len(positions))
	}
	seen := map[string]bool{}
	for _, p := range positions {
		if seen[p.Title] {
			t.Errorf("duplicate title %q", p.Title)
		}
		seen[p.Title] = true
	}
	if positions[0].Title != "Engineer at Acme" {
		t.Errorf("first title = %q", positions[0].Title)
	}
}

func TestDerivePositions_RequiresBothFields(t *testing.T) {
	positions := DerivePositions([]models.Contact{
		{FullName: "A", Company: "", Position: "Engineer"},
		{FullName: "B", Company: "Acme", Position: ""},
	})
	if len(positions) != 0 {
		t.Errorf("len(positions) = %d, want 0", len(positions))
	}
}

func TestDerive_EmptyInput(t *testing.T) {
	if got := DeriveEmployers(nil); len(got) != 0 {
		t.Errorf("employers from nil = %v", got)
	}
	if got := DerivePositions(nil); len(got) != 0 {
		t.Errorf("positions from nil = %v", got)
	}
}

// The scenario from the import pipeline: two Acme rows produce one
// employer with two connections and two distinct positions.
func TestScenario_AcmeImport(t *testing.T) {
	rows := [][]string{
		header,
		{"Jane", "Doe", "j@x.com", "Acme", "Engineer", "2020-01-01"},
		{"John", "Roe", "", "Acme", "Manager", ""},
	}
	contacts, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	employers := DeriveEmployers(contacts)
	positions := DerivePositions(contacts)

	if len(contacts) != 2 || len(employers) != 1 || len(positions) != 2 {
		t.Fatalf("contacts=%d employers=%d positions=%d, want 2/1/2",
			len(contacts), len(employers), len(positions))
	}
	if employers[0].Company != "Acme" || len(employers[0].Connections) != 2 {
		t.Errorf("employer = %+v", employers[0])
	}
	if positions[0].Title != "Engineer at Acme" || positions[1].Title != "Manager at Acme" {
		t.Errorf("positions = %+v", positions)
	}
}
