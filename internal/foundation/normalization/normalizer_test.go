package normalization

import "testing"

type tier string

const (
	tierProd tier = "production"
	tierTest tier = "test"
	tierDev  tier = "development"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(map[string]tier{
		"production": tierProd,
		"Prod":       tierProd,
		"test":       tierTest,
	}, tierDev)

	tests := []struct {
		input    string
		expected tier
	}{
		{"production", tierProd},
		{"PROD", tierProd},
		{"  test\t", tierTest},
		{"staging", tierDev},
		{"", tierDev},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
