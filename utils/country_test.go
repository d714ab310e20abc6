package utils

import "testing"

func TestCountryCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"United Kingdom", "GB"},
		{"uk", "GB"},
		{"  England ", "GB"},
		{"gb", "GB"},
		{"USA", "US"},
		{"fr", "FR"},
		{"Deutschland", "DE"},
		{"Narnia", DefaultCountryCode},
		{"", DefaultCountryCode},
		{"1a", DefaultCountryCode},
		{"gbr", DefaultCountryCode},
	}

	for _, tt := range tests {
		if got := CountryCode(tt.input); got != tt.want {
			t.Errorf("CountryCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
