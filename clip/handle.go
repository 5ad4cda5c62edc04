// MODUL: clip/handle
// ZWECK: Lifecycle und Zugriffsdisziplin fuer das eine geladene Modell
// INPUT: Modell-Identifier, Device, Loader-Funktion
// OUTPUT: Thread-sicherer Lesezugriff auf Backend + Tokenizer
// NEBENEFFEKTE: Loader laedt Modell-Artefakte (Netzwerk/Dateisystem)
// ABHAENGIGKEITEN: tokenizer (intern), sync
// HINWEISE: Zustandsmaschine unloaded -> loading -> ready -> unloaded;
//           Load-Fehler sind fatal, es gibt keine automatischen Retries

package clip

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/7blacky7/clipserve/tokenizer"
)

// State beschreibt den Lifecycle-Zustand des Handles
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
)

// String gibt den Zustand lesbar zurueck
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unloaded"
	}
}

// ErrAlreadyLoading verhindert konkurrente Load-Aufrufe
var ErrAlreadyLoading = errors.New("clip: load already in progress")

// Loader konstruiert Backend und Tokenizer fuer ein Modell.
// Die Indirektion haelt das hub/onnx-Wiring aus diesem Paket heraus
// und macht den Handle mit einem Fake-Backend testbar.
type Loader func(ctx context.Context, name, device string) (Backend, *tokenizer.Tokenizer, error)

// Handle ist die einzige Quelle fuer das geladene Modell, seine
// Preprocessing-Parameter und seinen Tokenizer. Alle konkurrenten
// Encoder-Aufrufe teilen sich denselben Handle (read-only).
type Handle struct {
	mu      sync.RWMutex
	state   State
	backend Backend
	tok     *tokenizer.Tokenizer
}

// NewHandle erstellt einen leeren Handle im Zustand unloaded
func NewHandle() *Handle {
	return &Handle{}
}

// Load laedt das Modell und setzt den Handle auf ready.
// Ein Fehler laesst den Handle im Zustand unloaded zurueck und ist
// als Startup-Bedingung fatal: der Aufrufer darf danach keinen
// Inference-Traffic annehmen.
func (h *Handle) Load(ctx context.Context, name, device string, load Loader) error {
	h.mu.Lock()
	switch h.state {
	case StateLoading:
		h.mu.Unlock()
		return ErrAlreadyLoading
	case StateReady:
		h.mu.Unlock()
		return &LoadError{Model: name, Err: errors.New("model already loaded")}
	}
	h.state = StateLoading
	h.mu.Unlock()

	slog.Info("loading model", "model", name, "device", device)
	start := time.Now()

	backend, tok, err := load(ctx, name, device)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.state = StateUnloaded
		return &LoadError{Model: name, Err: err}
	}

	h.backend = backend
	h.tok = tok
	h.state = StateReady

	info := backend.Info()
	slog.Info("model loaded", "model", info.Name, "version", info.Version,
		"dim", info.EmbeddingDim, "image_size", info.ImageSize,
		"duration", time.Since(start))

	return nil
}

// IsReady ist die nicht-blockierende Readiness-Probe
func (h *Handle) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state == StateReady
}

// State gibt den aktuellen Lifecycle-Zustand zurueck
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Get gibt Backend und Tokenizer read-only zurueck.
// Vor Load bzw. nach Unload kommt ErrNotReady.
func (h *Handle) Get() (Backend, *tokenizer.Tokenizer, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != StateReady {
		return nil, nil, ErrNotReady
	}
	return h.backend, h.tok, nil
}

// Info gibt die Modell-Metadaten zurueck, Zero-Value wenn nicht ready
func (h *Handle) Info() ModelInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != StateReady {
		return ModelInfo{}
	}
	return h.backend.Info()
}

// Unload gibt alle Modell-Ressourcen frei. Idempotent; nachfolgende
// Get-Aufrufe liefern ErrNotReady.
func (h *Handle) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateReady {
		return nil
	}

	err := h.backend.Close()
	h.backend = nil
	h.tok = nil
	h.state = StateUnloaded

	return err
}
