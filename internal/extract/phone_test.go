package extract

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mobile 11 digits", "81987654321", "(81)98765-4321"},
		{"landline 10 digits", "8134561234", "(81)3456-1234"},
		{"already formatted landline", "(81) 3456-1234", "(81)3456-1234"},
		{"formatted mobile with dash", "(81) 98765-4321", "(81)98765-4321"},
		{"empty", "", ""},
		{"too short passes through", "1234", "1234"},
		{"odd spacing collapsed", "  12  34 ", "12 34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindPhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"embedded mobile", "FONE: 81 98765-4321 RAMAL 2", "(81)98765-4321"},
		{"bare digit run", "contato 8134561234 manha", "(81)3456-1234"},
		{"no phone", "sem numero aqui", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPhone(tt.input); got != tt.expected {
				t.Errorf("FindPhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
