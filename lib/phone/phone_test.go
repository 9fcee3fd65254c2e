package phone

import "testing"

func TestNormalize(t *testing.T) {
	rule := Rule{LocalPrefix: "08", CallCode: "62", MinDigits: 10}

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"08123456789", "08123456789", true},
		{" 0812-3456-789 ", "08123456789", true},
		{"+62 812 3456 789", "+628123456789", true},
		{"628123456789", "628123456789", true},
		{"0812345", "", false},
		{"07123456789", "", false},
		{"+08123456789", "", false},
		{"0812345678x", "", false},
		{"0812345678901234567", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := rule.Normalize(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestForCountry(t *testing.T) {
	rule, err := ForCountry("ID", "08", 0)
	if err != nil {
		t.Fatalf("ForCountry failed: %v", err)
	}
	if rule.CallCode != "62" {
		t.Errorf("Expected calling code 62, got %q", rule.CallCode)
	}
	if rule.MinDigits != defaultMinDigits {
		t.Errorf("Expected default min digits, got %d", rule.MinDigits)
	}

	if _, err := ForCountry("Atlantis", "0", 10); err == nil {
		t.Error("Expected error for unknown country")
	}
}
