// config.go - Haupt-Konfigurationsfunktionen fuer clipserve
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (CLIPSERVE_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (CLIPSERVE_ORIGINS)
// - ModelName: Gibt den Modell-Identifier zurueck (MODEL_NAME)
// - ModelDevice: Gibt das Compute-Device zurueck (MODEL_DEVICE)
// - BatchSize: Gibt die maximale Batch-Groesse zurueck (BATCH_SIZE)
// - Models: Gibt das Modell-Cache-Verzeichnis zurueck (CLIPSERVE_MODELS)
// - Threads: Gibt die Thread-Anzahl fuer Inference zurueck (CLIPSERVE_THREADS)
// - LogLevel: Gibt Log-Level zurueck (CLIPSERVE_DEBUG)
//
// Alle Werte werden einmalig beim Start gelesen und sind danach
// unveraenderlich. Utility-Funktionen liegen in config_utils.go.
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Standardwerte der Prozess-Konfiguration
const (
	// DefaultModelName ist das Standard-CLIP-Modell
	DefaultModelName = "ViT-B-32"

	// DefaultModelDevice ist das Standard-Compute-Device
	DefaultModelDevice = "cpu"

	// DefaultBatchSize begrenzt die Items pro Request
	DefaultBatchSize = 16

	// DefaultPort ist der Standard-HTTP-Port
	DefaultPort = "8093"
)

// ModelName gibt den Modell-Identifier zurueck
// Konfigurierbar via MODEL_NAME
// Default: ViT-B-32
func ModelName() string {
	if s := Var("MODEL_NAME"); s != "" {
		return s
	}
	return DefaultModelName
}

// ModelDevice gibt das Compute-Device zurueck
// Konfigurierbar via MODEL_DEVICE (cpu|cuda)
// Unbekannte Werte fallen auf cpu zurueck
func ModelDevice() string {
	switch s := Var("MODEL_DEVICE"); s {
	case "cpu", "cuda":
		return s
	case "":
		return DefaultModelDevice
	default:
		slog.Warn("unknown MODEL_DEVICE, using default", "value", s, "default", DefaultModelDevice)
		return DefaultModelDevice
	}
}

// BatchSize gibt die maximale Batch-Groesse zurueck
// Konfigurierbar via BATCH_SIZE (positive Ganzzahl)
// Default: 16
func BatchSize() int {
	if s := Var("BATCH_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		slog.Warn("invalid BATCH_SIZE, using default", "value", s, "default", DefaultBatchSize)
	}
	return DefaultBatchSize
}

// Threads gibt die Anzahl der Intra-Op-Threads fuer Inference zurueck
// Konfigurierbar via CLIPSERVE_THREADS
// Default: Anzahl CPU-Kerne
func Threads() int {
	if s := Var("CLIPSERVE_THREADS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		slog.Warn("invalid CLIPSERVE_THREADS, using default", "value", s)
	}
	return runtime.NumCPU()
}

// Models gibt das Modell-Cache-Verzeichnis zurueck
// Konfigurierbar via CLIPSERVE_MODELS
// Default: ~/.clipserve/models
func Models() string {
	if s := Var("CLIPSERVE_MODELS"); s != "" {
		return s
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".clipserve", "models")
	}
	return filepath.Join(os.TempDir(), "clipserve-models")
}

// Host gibt Scheme und Host zurueck
// Konfigurierbar via CLIPSERVE_HOST
// Default: http://127.0.0.1:8093
func Host() *url.URL {
	defaultPort := DefaultPort

	s := strings.TrimSpace(Var("CLIPSERVE_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via CLIPSERVE_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("CLIPSERVE_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via CLIPSERVE_DEBUG (bool oder Zahl)
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("CLIPSERVE_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var liest eine Environment-Variable und trimmt Whitespace und Quotes
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
