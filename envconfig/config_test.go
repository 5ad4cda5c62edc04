// MODUL: config_test
// ZWECK: Tests fuer Environment-Konfiguration
// INPUT: Gesetzte Environment-Variablen via t.Setenv
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine (t.Setenv stellt Werte zurueck)
// ABHAENGIGKEITEN: testing
// HINWEISE: Testet Defaults, gueltige und ungueltige Werte

package envconfig

import "testing"

func TestModelName(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"Default", "", "ViT-B-32"},
		{"Gesetzt", "ViT-L-14", "ViT-L-14"},
		{"Mit Quotes", "\"ViT-B-16\"", "ViT-B-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MODEL_NAME", tt.value)
			if got := ModelName(); got != tt.expected {
				t.Errorf("ModelName() = %q, erwartet %q", got, tt.expected)
			}
		})
	}
}

func TestModelDevice(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"Default", "", "cpu"},
		{"CPU", "cpu", "cpu"},
		{"CUDA", "cuda", "cuda"},
		{"Unbekannt faellt auf cpu zurueck", "tpu", "cpu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MODEL_DEVICE", tt.value)
			if got := ModelDevice(); got != tt.expected {
				t.Errorf("ModelDevice() = %q, erwartet %q", got, tt.expected)
			}
		})
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"Default", "", 16},
		{"Gesetzt", "32", 32},
		{"Eins", "1", 1},
		{"Null ist ungueltig", "0", 16},
		{"Negativ ist ungueltig", "-4", 16},
		{"Kein Integer", "viele", 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BATCH_SIZE", tt.value)
			if got := BatchSize(); got != tt.expected {
				t.Errorf("BatchSize() = %d, erwartet %d", got, tt.expected)
			}
		})
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"Default", "", "127.0.0.1:8093"},
		{"Nur Port", "0.0.0.0:9000", "0.0.0.0:9000"},
		{"Nur Host", "0.0.0.0", "0.0.0.0:8093"},
		{"Ungueltiger Port", "127.0.0.1:99999", "127.0.0.1:8093"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLIPSERVE_HOST", tt.value)
			if got := Host().Host; got != tt.expected {
				t.Errorf("Host().Host = %q, erwartet %q", got, tt.expected)
			}
		})
	}
}

func TestAllowedOriginsEnthaeltLocalhost(t *testing.T) {
	t.Setenv("CLIPSERVE_ORIGINS", "https://anomaly.example.com")
	origins := AllowedOrigins()

	found := map[string]bool{}
	for _, o := range origins {
		found[o] = true
	}

	for _, want := range []string{"https://anomaly.example.com", "http://localhost", "http://127.0.0.1"} {
		if !found[want] {
			t.Errorf("AllowedOrigins() enthaelt %q nicht: %v", want, origins)
		}
	}
}
