package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidatePlaceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "Tokyo", false},
		{"valid with comma", "Paris, France", false},
		{"valid unicode", "São Paulo", false},
		{"valid coordinates", "35.6762, 139.6503", false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlaceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePlaceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidQuery) {
				t.Errorf("ValidatePlaceName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidQuery)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"short hex", "#f00", false},
		{"long hex", "#ff5b5b", false},
		{"upper case", "#6B7CFF", false},
		{"with alpha", "#6b7cff33", false},

		{"empty", "", true},
		{"no hash", "ff0000", true},
		{"named color", "red", true},
		{"bad digit", "#gg0000", true},
		{"wrong length", "#ff00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLngLat(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
		wantErr  bool
	}{
		{"origin", 0, 0, false},
		{"tokyo", 139.6503, 35.6762, false},
		{"bounds", 180, -90, false},

		{"lng too large", 181, 0, true},
		{"lat too small", 0, -91, true},
		{"nan", math.NaN(), 0, true},
		{"inf", 0, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLngLat(tt.lng, tt.lat)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLngLat(%v, %v) error = %v, wantErr %v", tt.lng, tt.lat, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "globe-infographic.png", false},
		{"valid nested", "exports/globe.png", false},
		{"valid absolute", "/tmp/globe.png", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 600), true},
		{"path traversal", "../secret.png", true},
		{"null byte", "foo\x00.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://api.mapbox.com", false},
		{"http", "http://localhost:8080", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"javascript", "javascript:alert(1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
