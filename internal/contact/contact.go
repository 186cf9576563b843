// Package contact holds the contact-form submission payload, its
// validation rules, and the mapping to HubSpot contact properties.
package contact

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is one contact-form POST body. school_name and position are
// optional and never validated.
type Submission struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"required,contains=@"`
	Phone      string `json:"phone" validate:"required,notblank"`
	SchoolName string `json:"school_name"`
	Position   string `json:"position"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// required passes whitespace-only strings, the form treats those as missing
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Fixed messages the frontend matches on verbatim.
var fieldMessages = map[string]string{
	"Name":  "Name is required",
	"Email": "Valid email is required",
	"Phone": "Phone number is required",
}

// fieldOrder pins the order of details in the 400 body.
var fieldOrder = [...]string{"Name", "Email", "Phone"}

// Validate evaluates every rule (no short-circuit) and returns one message
// per failing field in name, email, phone order. Nil means valid.
func (s Submission) Validate() []string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = true
	}

	out := make([]string, 0, len(failed))
	for _, f := range fieldOrder {
		if failed[f] {
			out = append(out, fieldMessages[f])
		}
	}
	return out
}

// Properties is the HubSpot property map sent on contact create/update.
type Properties map[string]string

// SplitName splits a full name into HubSpot firstname/lastname: first
// token and the remaining tokens joined with a space (empty last name
// when the form only carried a single token).
func SplitName(name string) (first, last string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// Properties builds the HubSpot property map for this submission.
// Optional source fields are inserted only when present.
func (s Submission) Properties() Properties {
	first, last := SplitName(s.Name)
	p := Properties{
		"email":     s.Email,
		"firstname": first,
		"lastname":  last,
	}
	if s.Phone != "" {
		p["phone"] = s.Phone
	}
	if s.SchoolName != "" {
		p["company"] = s.SchoolName
	}
	if s.Position != "" {
		p["jobtitle"] = s.Position
	}
	return p
}

// WithoutEmail returns a copy with the unique key removed. HubSpot
// rejects updates that set email through the patch-by-id endpoint.
func (p Properties) WithoutEmail() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		if k == "email" {
			continue
		}
		out[k] = v
	}
	return out
}
