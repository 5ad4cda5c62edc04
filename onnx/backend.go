//go:build cgo

// MODUL: onnx/backend
// ZWECK: clip.Backend Implementierung ueber zwei ONNX Sessions
// INPUT: Config mit Visual/Textual Pfaden, flache Pixel/Token-Batches
// OUTPUT: Flache unnormalisierte Feature-Batches [n*dim]
// NEBENEFFEKTE: Laedt ONNX Runtime Sessions, alloziert GPU/CPU Speicher
// ABHAENGIGKEITEN: session.go, clip (Backend Interface), vision, tokenizer
// HINWEISE: Die Serialisierung der Forward-Paesse passiert beim
//           Aufrufer; das Backend selbst prueft nur Shapes und closed

package onnx

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/tokenizer"
	"github.com/7blacky7/clipserve/vision"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	ErrModelLoad     = errors.New("onnx: modell laden fehlgeschlagen")
	ErrSessionCreate = errors.New("onnx: session erstellen fehlgeschlagen")
	ErrInference     = errors.New("onnx: inference fehlgeschlagen")
	ErrAlreadyClosed = errors.New("onnx: backend bereits geschlossen")
	ErrInvalidInput  = errors.New("onnx: ungueltige eingabe")
)

// ============================================================================
// Backend - Hauptstruktur
// ============================================================================

// Backend implementiert clip.Backend mit ONNX Runtime.
// Haelt eine Session pro Encoder-Haelfte des CLIP-Modells.
type Backend struct {
	visual  *Session
	textual *Session
	info    clip.ModelInfo
	closed  bool
	mu      sync.RWMutex
}

// ============================================================================
// Konstruktor
// ============================================================================

// NewBackend laedt beide Encoder-Haelften und liest Bildgroesse und
// Embedding-Dimension aus den Modell-Dateien.
func NewBackend(cfg Config) (*Backend, error) {
	for _, path := range []string{cfg.VisualPath, cfg.TextualPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelLoad, path)
		}
	}

	useGPU := cfg.Device == "cuda" || cfg.Device == "gpu"

	visual, err := CreateSession(cfg.VisualPath, SessionOptions{
		InputName:   VisualInputName,
		OutputName:  VisualOutputName,
		NumThreads:  cfg.Threads,
		UseGPU:      useGPU,
		GPUDeviceID: cfg.GPUDeviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: visual: %v", ErrSessionCreate, err)
	}

	textual, err := CreateSession(cfg.TextualPath, SessionOptions{
		InputName:   TextInputName,
		OutputName:  TextOutputName,
		NumThreads:  cfg.Threads,
		UseGPU:      useGPU,
		GPUDeviceID: cfg.GPUDeviceID,
	})
	if err != nil {
		visual.Destroy()
		return nil, fmt.Errorf("%w: textual: %v", ErrSessionCreate, err)
	}

	return &Backend{
		visual:  visual,
		textual: textual,
		info: clip.ModelInfo{
			Name:          cfg.ModelName,
			Version:       cfg.ModelVersion,
			Device:        cfg.Device,
			EmbeddingDim:  visual.GetEmbeddingDim(),
			ImageSize:     visual.GetImageSize(),
			ContextLength: tokenizer.ContextLength,
			Mean:          vision.ClipMean,
			Std:           vision.ClipStd,
		},
	}, nil
}

// ============================================================================
// clip.Backend Interface
// ============================================================================

// EncodeImageBatch fuehrt den Bild-Forward-Pass fuer n Bilder aus.
// pixels ist ein flacher NCHW-Batch [n, 3, H, W].
func (b *Backend) EncodeImageBatch(pixels []float32, n int) ([]float32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrAlreadyClosed
	}
	size := b.info.ImageSize
	if n <= 0 || len(pixels) != n*3*size*size {
		return nil, ErrInvalidInput
	}

	inShape := ort.Shape{int64(n), 3, int64(size), int64(size)}
	outShape := ort.Shape{int64(n), int64(b.info.EmbeddingDim)}

	out, err := runBatch(b.visual, inShape, pixels, outShape, n*b.info.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return out, nil
}

// EncodeTextBatch fuehrt den Text-Forward-Pass fuer n Sequenzen aus.
// tokens ist ein flacher Batch [n, ContextLength] aus int64 IDs.
func (b *Backend) EncodeTextBatch(tokens []int64, n int) ([]float32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrAlreadyClosed
	}
	if n <= 0 || len(tokens) != n*b.info.ContextLength {
		return nil, ErrInvalidInput
	}

	inShape := ort.Shape{int64(n), int64(b.info.ContextLength)}
	outShape := ort.Shape{int64(n), int64(b.info.EmbeddingDim)}

	out, err := runBatch(b.textual, inShape, tokens, outShape, n*b.info.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return out, nil
}

// Info gibt Metadaten ueber das geladene Modell zurueck
func (b *Backend) Info() clip.ModelInfo {
	return b.info
}

// Close gibt alle Ressourcen frei
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	if b.visual != nil {
		b.visual.Destroy()
		b.visual = nil
	}
	if b.textual != nil {
		b.textual.Destroy()
		b.textual = nil
	}

	b.closed = true
	return nil
}
