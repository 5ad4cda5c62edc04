// MODUL: clip/handle_test
// ZWECK: Tests fuer die Modell-Lifecycle-Zustandsmaschine
// INPUT: Fake-Backend und Fake-Loader
// OUTPUT: Testresultate
// NEBENEFFEKTE: Temporaere Merges-Datei fuer den Tokenizer
// ABHAENGIGKEITEN: testing, tokenizer (intern)
// HINWEISE: Prueft Readiness vor/nach Load und nach Unload

package clip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/7blacky7/clipserve/tokenizer"
)

// fakeBackend produziert deterministische, unnormalisierte Features.
// Jede Zeile haengt nur vom eigenen Input-Abschnitt ab, wodurch die
// Einzel-vs-Batch-Aequivalenz der Pipeline direkt pruefbar ist.
type fakeBackend struct {
	dim      int
	imgSize  int
	zeroRows bool
	failErr  error
	closed   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{dim: 4, imgSize: 8}
}

func (f *fakeBackend) EncodeImageBatch(pixels []float32, n int) ([]float32, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	plane := 3 * f.imgSize * f.imgSize
	out := make([]float32, 0, n*f.dim)
	for i := 0; i < n; i++ {
		var sum float32
		for _, v := range pixels[i*plane : (i+1)*plane] {
			sum += v
		}
		out = f.appendRow(out, sum)
	}
	return out, nil
}

func (f *fakeBackend) EncodeTextBatch(tokens []int64, n int) ([]float32, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	rowLen := len(tokens) / n
	out := make([]float32, 0, n*f.dim)
	for i := 0; i < n; i++ {
		var sum float32
		for _, id := range tokens[i*rowLen : (i+1)*rowLen] {
			sum += float32(id)
		}
		out = f.appendRow(out, sum)
	}
	return out, nil
}

func (f *fakeBackend) appendRow(out []float32, seed float32) []float32 {
	if f.zeroRows {
		return append(out, make([]float32, f.dim)...)
	}
	return append(out, seed, seed*0.5+1, 2, 3)
}

func (f *fakeBackend) Info() ModelInfo {
	return ModelInfo{
		Name:          "fake-vit",
		Version:       "test",
		Device:        "cpu",
		EmbeddingDim:  f.dim,
		ImageSize:     f.imgSize,
		ContextLength: tokenizer.ContextLength,
		Mean:          [3]float32{0.5, 0.5, 0.5},
		Std:           [3]float32{0.5, 0.5, 0.5},
	}
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

// testTokenizer laedt einen minimalen Tokenizer
func testTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "merges.txt")
	content := "#version: 0.2\nc a\nca t</w>\na t</w>\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("merges schreiben: %v", err)
	}
	tok, err := tokenizer.Load(path)
	if err != nil {
		t.Fatalf("tokenizer laden: %v", err)
	}
	return tok
}

// fakeLoader gibt einen Loader zurueck, der das Fake-Backend liefert
func fakeLoader(t *testing.T, backend Backend, loadErr error) Loader {
	tok := testTokenizer(t)
	return func(_ context.Context, _, _ string) (Backend, *tokenizer.Tokenizer, error) {
		if loadErr != nil {
			return nil, nil, loadErr
		}
		return backend, tok, nil
	}
}

// loadedHandle erstellt einen fertig geladenen Handle
func loadedHandle(t *testing.T, backend Backend) *Handle {
	t.Helper()
	h := NewHandle()
	if err := h.Load(context.Background(), "fake-vit", "cpu", fakeLoader(t, backend, nil)); err != nil {
		t.Fatalf("Load() Fehler: %v", err)
	}
	return h
}

func TestHandleReadinessVorLoad(t *testing.T) {
	h := NewHandle()

	if h.IsReady() {
		t.Error("IsReady() = true vor Load")
	}
	if h.State() != StateUnloaded {
		t.Errorf("State() = %v, erwartet unloaded", h.State())
	}
	if _, _, err := h.Get(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Get() = %v, erwartet ErrNotReady", err)
	}
}

func TestHandleLoadSetztReady(t *testing.T) {
	h := loadedHandle(t, newFakeBackend())

	if !h.IsReady() {
		t.Error("IsReady() = false nach Load")
	}

	backend, tok, err := h.Get()
	if err != nil {
		t.Fatalf("Get() Fehler: %v", err)
	}
	if backend == nil || tok == nil {
		t.Error("Get() liefert nil-Artefakte")
	}
	if h.Info().Name != "fake-vit" {
		t.Errorf("Info().Name = %q", h.Info().Name)
	}
}

func TestHandleLoadFehlerIstFatal(t *testing.T) {
	h := NewHandle()
	cause := errors.New("weights unavailable")

	err := h.Load(context.Background(), "fake-vit", "cpu", fakeLoader(t, nil, cause))

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load() = %v, erwartet LoadError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("LoadError verliert die Ursache")
	}
	if h.IsReady() {
		t.Error("Handle ready nach fehlgeschlagenem Load")
	}
	if h.State() != StateUnloaded {
		t.Errorf("State() = %v, erwartet unloaded", h.State())
	}
}

func TestHandleDoppeltesLoad(t *testing.T) {
	h := loadedHandle(t, newFakeBackend())

	if err := h.Load(context.Background(), "fake-vit", "cpu", fakeLoader(t, newFakeBackend(), nil)); err == nil {
		t.Error("zweites Load() = nil, erwartet Fehler")
	}
}

func TestHandleUnload(t *testing.T) {
	backend := newFakeBackend()
	h := loadedHandle(t, backend)

	if err := h.Unload(); err != nil {
		t.Fatalf("Unload() Fehler: %v", err)
	}
	if !backend.closed {
		t.Error("Backend wurde nicht geschlossen")
	}
	if h.IsReady() {
		t.Error("IsReady() = true nach Unload")
	}
	if _, _, err := h.Get(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Get() nach Unload = %v, erwartet ErrNotReady", err)
	}

	// Idempotent
	if err := h.Unload(); err != nil {
		t.Errorf("zweites Unload() = %v, erwartet nil", err)
	}
}
