package csvnorm

import (
	"github.com/starford/lisearch/internal/models"
)

// DeriveEmployers groups contacts by their exact post-trim company string.
// Contacts without a company are excluded; there is no "Unknown Company"
// bucket. First-seen order of each company is preserved; sorting is the
// query service's job.
func DeriveEmployers(contacts []models.Contact) []models.Employer {
	byCompany := make(map[string]int, len(contacts))
	out := make([]models.Employer, 0)

	for _, c := range contacts {
		if c.Company == "" {
			continue
		}
		idx, ok := byCompany[c.Company]
		if !ok {
			idx = len(out)
			byCompany[c.Company] = idx
			out = append(out, models.Employer{Company: c.Company})
		}
		out[idx].Connections = append(out[idx].Connections, models.ConnectionRef{
			FullName: c.FullName,
			Position: c.Position,
		})
	}
	return out
}

// DerivePositions returns one record per distinct "<position> at <company>"
// title. Both parts must be non-empty. Duplicate titles collapse to a
// single record in first-seen order.
func DerivePositions(contacts []models.Contact) []models.Position {
	seen := make(map[string]struct{}, len(contacts))
	out := make([]models.Position, 0)

	for _, c := range contacts {
		if c.Position == "" || c.Company == "" {
			continue
		}
		title := c.Position + " at " + c.Company
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, models.Position{
			Title:    title,
			Position: c.Position,
			Company:  c.Company,
		})
	}
	return out
}
