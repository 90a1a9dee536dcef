package zone

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZone string
		wantFee  string // empty means nil fee
	}{
		{"capital", "Recife", Capital, "165.00"},
		{"capital uppercase", "RECIFE", Capital, "165.00"},
		{"capital padded lowercase", "  recife ", Capital, "165.00"},
		{"metro accented", "Jaboatão dos Guararapes", Metropolitana, "170.50"},
		{"metro accent-stripped", "JABOATAO DOS GUARARAPES", Metropolitana, "170.50"},
		{"metro", "Olinda", Metropolitana, "170.50"},
		{"metro cedilla", "Araçoiaba", Metropolitana, "170.50"},
		{"interior", "Garanhuns", Outros, ""},
		{"interior 2", "Caruaru", Outros, ""},
		{"empty", "", Outros, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, fee := Classify(tt.input)
			if zone != tt.wantZone {
				t.Errorf("Classify(%q) zone = %q, want %q", tt.input, zone, tt.wantZone)
			}
			if tt.wantFee == "" {
				if fee != nil {
					t.Errorf("Classify(%q) fee = %s, want nil", tt.input, fee)
				}
				return
			}
			if fee == nil {
				t.Fatalf("Classify(%q) fee = nil, want %s", tt.input, tt.wantFee)
			}
			if want := decimal.RequireFromString(tt.wantFee); !fee.Equal(want) {
				t.Errorf("Classify(%q) fee = %s, want %s", tt.input, fee, want)
			}
		})
	}
}

// Returned fee pointers must be copies; callers mutating one must not
// corrupt the package constants.
func TestClassifyFeeIsolation(t *testing.T) {
	_, fee := Classify("Recife")
	*fee = decimal.Zero
	_, again := Classify("Recife")
	if !again.Equal(decimal.RequireFromString("165.00")) {
		t.Fatalf("package fee mutated through returned pointer: %s", again)
	}
}
