// MODUL: onnx/config
// ZWECK: Gemeinsame Konfiguration fuer CGO- und Stub-Build des Backends
// INPUT: Modell-Pfade, Geraete-Auswahl, Thread-Anzahl
// OUTPUT: Config-Struktur fuer NewBackend
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: Keine
// HINWEISE: Tensor-Namen folgen dem ONNX-Export von open_clip/transformers

package onnx

import "errors"

const (
	// VisualInputName ist der Input-Tensor Name des Bild-Encoders
	VisualInputName = "pixel_values"

	// VisualOutputName ist der Output-Tensor Name des Bild-Encoders
	VisualOutputName = "image_embeds"

	// TextInputName ist der Input-Tensor Name des Text-Encoders
	TextInputName = "input_ids"

	// TextOutputName ist der Output-Tensor Name des Text-Encoders
	TextOutputName = "text_embeds"

	// DefaultImageSize ist die Fallback-Bildgroesse wenn nicht aus
	// dem Modell lesbar. 224 ist Standard fuer Vision Transformer.
	DefaultImageSize = 224
)

// ErrCGORequired wird zurueckgegeben wenn CGO nicht verfuegbar ist
var ErrCGORequired = errors.New("onnx: CGO required but not available")

// Config beschreibt ein zweiteiliges CLIP-Modell auf der Platte.
// Visual und Textual sind getrennte ONNX-Graphen mit geteiltem
// Embedding-Raum.
type Config struct {
	// ModelName ist der logische Modellname, z.B. "ViT-B-32"
	ModelName string

	// ModelVersion ist das Pretraining-Tag, z.B. "openai"
	ModelVersion string

	// VisualPath ist der Pfad zum Bild-Encoder (.onnx)
	VisualPath string

	// TextualPath ist der Pfad zum Text-Encoder (.onnx)
	TextualPath string

	// Device waehlt den Execution Provider: "cpu" oder "cuda"
	Device string

	// Threads fuer Intra-Op Parallelisierung (0 = auto)
	Threads int

	// GPUDeviceID ist der GPU Index (Standard: 0)
	GPUDeviceID int
}
