// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import "fmt"

// EnvVar beschreibt eine Environment-Variable fuer Usage-Texte
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"MODEL_NAME":        {"MODEL_NAME", ModelName(), "Name of the pretrained CLIP model to load"},
		"MODEL_DEVICE":      {"MODEL_DEVICE", ModelDevice(), "Compute device for inference (cpu|cuda)"},
		"BATCH_SIZE":        {"BATCH_SIZE", BatchSize(), "Maximum number of items per embedding request"},
		"CLIPSERVE_HOST":    {"CLIPSERVE_HOST", Host(), "IP address and port for the embedding server"},
		"CLIPSERVE_ORIGINS": {"CLIPSERVE_ORIGINS", AllowedOrigins(), "Comma separated list of allowed origins"},
		"CLIPSERVE_MODELS":  {"CLIPSERVE_MODELS", Models(), "Directory for downloaded model artifacts"},
		"CLIPSERVE_THREADS": {"CLIPSERVE_THREADS", Threads(), "Number of intra-op inference threads"},
		"CLIPSERVE_DEBUG":   {"CLIPSERVE_DEBUG", LogLevel(), "Show additional debug information"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
// Praktisch fuer strukturiertes Logging beim Server-Start
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
