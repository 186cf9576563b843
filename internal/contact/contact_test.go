package contact

import (
	"reflect"
	"testing"
)

func TestValidate_AllPresent(t *testing.T) {
	s := Submission{Name: "John Doe", Email: "john@example.com", Phone: "555-0100"}
	if msgs := s.Validate(); msgs != nil {
		t.Fatalf("Validate() = %v, want nil", msgs)
	}
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
		want []string
	}{
		{
			name: "all missing",
			sub:  Submission{},
			want: []string{"Name is required", "Valid email is required", "Phone number is required"},
		},
		{
			name: "name whitespace only",
			sub:  Submission{Name: "   ", Email: "a@b.co", Phone: "1"},
			want: []string{"Name is required"},
		},
		{
			name: "email missing at-sign",
			sub:  Submission{Name: "Ada", Email: "ada.example.com", Phone: "1"},
			want: []string{"Valid email is required"},
		},
		{
			name: "phone whitespace only",
			sub:  Submission{Name: "Ada", Email: "a@b.co", Phone: " \t"},
			want: []string{"Phone number is required"},
		},
		{
			name: "two failures keep field order",
			sub:  Submission{Name: "", Email: "nope", Phone: "1"},
			want: []string{"Name is required", "Valid email is required"},
		},
		{
			name: "optional fields never validated",
			sub:  Submission{Name: "Ada", Email: "a@b.co", Phone: "1", SchoolName: "", Position: ""},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sub.Validate()
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"John Doe", "John", "Doe"},
		{"Madonna", "Madonna", ""},
		{"Mary Jane Watson", "Mary", "Jane Watson"},
		{"  Ada   Lovelace  ", "Ada", "Lovelace"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestProperties_ConditionalFields(t *testing.T) {
	s := Submission{Name: "John Doe", Email: "john@example.com", Phone: "555-0100"}
	p := s.Properties()

	want := Properties{
		"email":     "john@example.com",
		"firstname": "John",
		"lastname":  "Doe",
		"phone":     "555-0100",
	}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("Properties() = %v, want %v", p, want)
	}
	if _, ok := p["company"]; ok {
		t.Fatal("company set without school_name")
	}
	if _, ok := p["jobtitle"]; ok {
		t.Fatal("jobtitle set without position")
	}
}

func TestProperties_OptionalFieldsIncluded(t *testing.T) {
	s := Submission{
		Name:       "Mary Jane Watson",
		Email:      "mj@example.com",
		Phone:      "555-0101",
		SchoolName: "Midtown High",
		Position:   "Principal",
	}
	p := s.Properties()

	if p["company"] != "Midtown High" {
		t.Fatalf("company = %q, want school name", p["company"])
	}
	if p["jobtitle"] != "Principal" {
		t.Fatalf("jobtitle = %q, want position", p["jobtitle"])
	}
	if p["firstname"] != "Mary" || p["lastname"] != "Jane Watson" {
		t.Fatalf("name split = %q/%q", p["firstname"], p["lastname"])
	}
}

func TestProperties_WithoutEmail(t *testing.T) {
	s := Submission{Name: "John Doe", Email: "john@example.com", Phone: "555-0100"}
	p := s.Properties().WithoutEmail()

	if _, ok := p["email"]; ok {
		t.Fatal("email survived WithoutEmail")
	}
	if p["firstname"] != "John" || p["phone"] != "555-0100" {
		t.Fatalf("other keys mangled: %v", p)
	}
}
