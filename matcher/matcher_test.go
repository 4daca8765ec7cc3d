package matcher

import (
	"testing"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		observed string
		want     bool
	}{
		{"exact", "Juan Perez", "Juan Perez", true},
		{"swapped order", "Juan Perez", "PEREZ JUAN", true},
		{"single shared surname", "Maria Lopez Garcia", "LOPEZ, JOSE", true},
		{"accents stripped", "José Gutiérrez", "GUTIERREZ JOSE MARIA", true},
		{"case insensitive", "ana maria rios", "RIOS ANA", true},
		{"disjoint names", "Juan Perez", "Carla Dominguez", false},
		{"empty observed", "Juan Perez", "", false},
		{"whitespace observed", "Juan Perez", "   ", false},
		{"empty expected", "", "Juan Perez", false},
		{"short tokens ignored", "De La Cruz", "LA DE", false},
		{"short tokens do not bridge", "Juan de Perez", "Ana de Gomez", false},
		{"middle name extra", "Juan Carlos Perez", "PEREZ JUAN CARLOS ALBERTO", true},
		{"enie normalized on both sides", "Nuñez Pedro", "NUÑEZ RAUL", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.expected, tt.observed); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, expected %v", tt.expected, tt.observed, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tokens := Tokens("José de la Peña")
	if _, ok := tokens["JOSE"]; !ok {
		t.Errorf("expected token JOSE in %v", tokens)
	}
	if _, ok := tokens["PENA"]; !ok {
		t.Errorf("expected token PENA (decomposed ñ keeps base letter) in %v", tokens)
	}
	if _, ok := tokens["DE"]; ok {
		t.Errorf("short token DE should be filtered, got %v", tokens)
	}
	if _, ok := tokens["LA"]; ok {
		t.Errorf("short token LA should be filtered, got %v", tokens)
	}
}
