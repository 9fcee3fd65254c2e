package validate

import (
	"testing"

	"github.com/iyann1255/daftaren/lib/phone"
)

func testValidator() *Validator {
	return New(phone.Rule{LocalPrefix: "08", CallCode: "62", MinDigits: 10})
}

func TestName(t *testing.T) {
	v := testValidator()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Ab", "", true},
		{"   ", "", true},
		{"Budi", "Budi", false},
		{"  Budi   Santoso ", "Budi Santoso", false},
	}
	for _, tt := range tests {
		got, err := v.Name(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Name(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContact(t *testing.T) {
	v := testValidator()

	got, err := v.Contact("0812-3456-789")
	if err != nil {
		t.Fatalf("Contact failed: %v", err)
	}
	if got != "08123456789" {
		t.Errorf("Expected normalized number, got %q", got)
	}

	for _, bad := range []string{"", "12345", "not a number", "09999"} {
		if _, err := v.Contact(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestStruct(t *testing.T) {
	type sample struct {
		Token string `yaml:"token" validate:"required"`
	}
	err := Struct(&sample{})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if err.Error() != "token required" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
	if err := Struct(&sample{Token: "x"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := Struct("text"); err == nil {
		t.Error("Expected error for non-struct")
	}
}
