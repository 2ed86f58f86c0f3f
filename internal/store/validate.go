package store

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/models"
)

// notBlank rejects values that are empty after trimming. ozzo's Required
// accepts whitespace-only strings, which the record rules do not.
func notBlank(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// validateContact is the insert hook for the connections collection. The
// normalizer already filters nameless rows; this is the second line of
// defense against direct-insert callers.
func validateContact(c models.Contact) error {
	if err := validation.Validate(c.FirstName, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "firstName", Reason: err.Error()}
	}
	if err := validation.Validate(c.LastName, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "lastName", Reason: err.Error()}
	}
	if err := validation.Validate(c.FullName, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "fullName", Reason: err.Error()}
	}
	if c.EmailAddress != "" {
		if err := validation.Validate(c.EmailAddress, is.Email); err != nil {
			return &apperr.ValidationError{Field: "emailAddress", Reason: err.Error()}
		}
	}
	return nil
}

func validateEmployer(e models.Employer) error {
	if err := validation.Validate(e.Company, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "company", Reason: err.Error()}
	}
	if len(e.Connections) == 0 {
		return &apperr.ValidationError{Field: "connections", Reason: "cannot be empty"}
	}
	return nil
}

func validatePosition(p models.Position) error {
	if err := validation.Validate(p.Title, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "title", Reason: err.Error()}
	}
	if err := validation.Validate(p.Position, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "position", Reason: err.Error()}
	}
	if err := validation.Validate(p.Company, validation.By(notBlank)); err != nil {
		return &apperr.ValidationError{Field: "company", Reason: err.Error()}
	}
	return nil
}
