//go:build !cgo

// MODUL: onnx/stub
// ZWECK: Stub-Implementierung wenn CGO nicht verfuegbar ist
// HINWEISE: Gibt Fehler zurueck bei allen Operationen

package onnx

import "github.com/7blacky7/clipserve/clip"

// InitRuntime Stub
func InitRuntime() error {
	return ErrCGORequired
}

// DestroyRuntime Stub
func DestroyRuntime() error {
	return nil
}

// Backend Stub
type Backend struct{}

// NewBackend Stub - gibt immer Fehler zurueck
func NewBackend(cfg Config) (*Backend, error) {
	return nil, ErrCGORequired
}

// EncodeImageBatch Stub
func (b *Backend) EncodeImageBatch(pixels []float32, n int) ([]float32, error) {
	return nil, ErrCGORequired
}

// EncodeTextBatch Stub
func (b *Backend) EncodeTextBatch(tokens []int64, n int) ([]float32, error) {
	return nil, ErrCGORequired
}

// Info Stub
func (b *Backend) Info() clip.ModelInfo {
	return clip.ModelInfo{}
}

// Close Stub
func (b *Backend) Close() error {
	return nil
}
