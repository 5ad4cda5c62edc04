// MODUL: clip/backend
// ZWECK: Backend-Interface fuer die Inference des geladenen Encoders
// INPUT: Gestapelte Batch-Tensoren (Pixel NCHW bzw. Token-IDs)
// OUTPUT: Flache Feature-Batches [n * EmbeddingDim], NICHT normalisiert
// NEBENEFFEKTE: abhaengig von der Implementierung (onnx)
// ABHAENGIGKEITEN: keine
// HINWEISE: Implementierungen muessen Forward-Pass ohne Gradienten
//           ausfuehren; Thread-Sicherheit uebernimmt der Encoder-Gate

package clip

// ModelInfo enthaelt Metadaten ueber das geladene Modell.
// Nach dem Laden unveraenderlich fuer die Prozess-Lebensdauer.
type ModelInfo struct {
	// Name ist der konfigurierte Modell-Identifier (z.B. ViT-B-32)
	Name string

	// Version ist der Tag der pretrained Gewichte (z.B. openai)
	Version string

	// Device ist das Compute-Device (cpu|cuda)
	Device string

	// EmbeddingDim ist die Dimension D aller erzeugten Vektoren
	EmbeddingDim int

	// ImageSize ist die Kantenlaenge der Preprocessing-Transform
	ImageSize int

	// ContextLength ist die Token-Sequenzlaenge des Text-Encoders
	ContextLength int

	// Mean/Std sind die Normalisierungs-Parameter der Bild-Transform
	Mean [3]float32
	Std  [3]float32
}

// Backend ist der Forward-Pass des geladenen Encoders.
type Backend interface {
	// EncodeImageBatch verarbeitet einen gestapelten Pixel-Tensor
	// [n, 3, ImageSize, ImageSize] zu einem flachen Feature-Batch
	// [n * EmbeddingDim].
	EncodeImageBatch(pixels []float32, n int) ([]float32, error)

	// EncodeTextBatch verarbeitet gestapelte Token-IDs
	// [n, ContextLength] zu einem flachen Feature-Batch.
	EncodeTextBatch(tokens []int64, n int) ([]float32, error)

	// Info gibt die Modell-Metadaten zurueck.
	Info() ModelInfo

	// Close gibt alle Backend-Ressourcen frei.
	Close() error
}
