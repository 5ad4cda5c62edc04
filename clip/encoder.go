// MODUL: clip/encoder
// ZWECK: Zentrale Pipeline Bild/Text -> unit-norm Embedding-Vektoren
// INPUT: Encodierte Bilder bzw. Strings (einzeln oder als Batch)
// OUTPUT: L2-normalisierte float32-Vektoren, Reihenfolge erhalten
// NEBENEFFEKTE: Meldet Request-Zaehler und Latenzen an den MetricsRecorder
// ABHAENGIGKEITEN: vision (intern), golang.org/x/sync/semaphore
// HINWEISE: Der Forward-Pass laeuft hinter einem Single-Flight-Gate
//           (FIFO), da nicht jeder Execution-Provider konkurrente
//           Forward-Paesse auf demselben Device garantiert

package clip

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/7blacky7/clipserve/vision"
)

// Operations-Typen fuer Metriken
const (
	OpImage      = "image"
	OpImageBatch = "image_batch"
	OpText       = "text"
	OpTextBatch  = "text_batch"
)

// MetricsRecorder nimmt Start/Ende-Ereignisse der Pipeline entgegen.
// Der Encoder kennt nur dieses Interface, nicht die Implementierung.
type MetricsRecorder interface {
	IncRequests(op string, n int)
	ObserveDuration(op string, seconds float64)
}

// nopMetrics ist der Default wenn kein Recorder gesetzt wird
type nopMetrics struct{}

func (nopMetrics) IncRequests(string, int) {}

func (nopMetrics) ObserveDuration(string, float64) {}

// Encoder fuehrt die Embedding-Pipeline auf dem geteilten Handle aus.
// Sicher fuer konkurrente Nutzung; die Serialisierung passiert
// ausschliesslich am Gate um den Forward-Pass.
type Encoder struct {
	handle   *Handle
	maxBatch int
	gate     *semaphore.Weighted
	metrics  MetricsRecorder
}

// EncoderOption konfiguriert einen Encoder
type EncoderOption func(*Encoder)

// WithMetrics setzt den MetricsRecorder
func WithMetrics(m MetricsRecorder) EncoderOption {
	return func(e *Encoder) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEncoder erstellt einen Encoder ueber dem gegebenen Handle.
// maxBatch ist die prozessweite maximale Batch-Groesse.
func NewEncoder(handle *Handle, maxBatch int, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		handle:   handle,
		maxBatch: maxBatch,
		gate:     semaphore.NewWeighted(1),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ============================================================================
// Bild-Pfad
// ============================================================================

// EncodeImage erzeugt das Embedding fuer ein einzelnes Bild.
// Numerisch identisch (bis auf Batching-Toleranz) zum selben Bild
// innerhalb eines Batches.
func (e *Encoder) EncodeImage(ctx context.Context, data []byte) ([]float32, error) {
	e.metrics.IncRequests(OpImage, 1)
	start := time.Now()

	vecs, err := e.encodeImages(ctx, [][]byte{data})
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveDuration(OpImage, time.Since(start).Seconds())
	return vecs[0], nil
}

// EncodeImages erzeugt Embeddings fuer einen Bild-Batch.
// Items jenseits der maximalen Batch-Groesse werden vom Ende her
// stillschweigend verworfen.
func (e *Encoder) EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error) {
	e.metrics.IncRequests(OpImageBatch, len(images))
	start := time.Now()

	vecs, err := e.encodeImages(ctx, Truncate(images, e.maxBatch))
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveDuration(OpImageBatch, time.Since(start).Seconds())
	return vecs, nil
}

// encodeImages ist die gemeinsame Bild-Pipeline fuer Einzel und Batch
func (e *Encoder) encodeImages(ctx context.Context, images [][]byte) ([][]float32, error) {
	if len(images) == 0 {
		return [][]float32{}, nil
	}

	backend, _, err := e.handle.Get()
	if err != nil {
		return nil, err
	}
	info := backend.Info()

	// Decode + Kanal-Normalisierung + Transform, dann in einen
	// zusammenhaengenden Batch-Tensor stapeln. Die geteilte Transform
	// garantiert identische Shapes pro Item.
	plane := 3 * info.ImageSize * info.ImageSize
	pixels := make([]float32, 0, len(images)*plane)

	for _, data := range images {
		img, err := vision.Normalize(data)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}

		tensor, err := vision.PreprocessImage(img, info.ImageSize, info.Mean, info.Std)
		if err != nil {
			return nil, &ProcessError{Op: OpImage, Err: err}
		}
		pixels = append(pixels, tensor...)
	}

	flat, err := e.forward(ctx, func() ([]float32, error) {
		return backend.EncodeImageBatch(pixels, len(images))
	})
	if err != nil {
		return nil, &ProcessError{Op: OpImage, Err: err}
	}

	return e.splitAndNormalize(flat, len(images), info.EmbeddingDim, OpImage)
}

// ============================================================================
// Text-Pfad
// ============================================================================

// EncodeText erzeugt das Embedding fuer einen einzelnen String
func (e *Encoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	e.metrics.IncRequests(OpText, 1)
	start := time.Now()

	vecs, err := e.encodeTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveDuration(OpText, time.Since(start).Seconds())
	return vecs[0], nil
}

// EncodeTexts erzeugt Embeddings fuer einen Text-Batch
func (e *Encoder) EncodeTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.metrics.IncRequests(OpTextBatch, len(texts))
	start := time.Now()

	vecs, err := e.encodeTexts(ctx, Truncate(texts, e.maxBatch))
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveDuration(OpTextBatch, time.Since(start).Seconds())
	return vecs, nil
}

// encodeTexts ist die gemeinsame Text-Pipeline fuer Einzel und Batch
func (e *Encoder) encodeTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	backend, tok, err := e.handle.Get()
	if err != nil {
		return nil, err
	}
	info := backend.Info()

	// Tokenisierung uebernimmt Truncation/Padding auf Kontextlaenge
	tokens, err := tok.EncodeBatch(texts)
	if err != nil {
		return nil, &ProcessError{Op: OpText, Err: err}
	}

	flat, err := e.forward(ctx, func() ([]float32, error) {
		return backend.EncodeTextBatch(tokens, len(texts))
	})
	if err != nil {
		return nil, &ProcessError{Op: OpText, Err: err}
	}

	return e.splitAndNormalize(flat, len(texts), info.EmbeddingDim, OpText)
}

// ============================================================================
// Forward-Pass Gate und Normalisierung
// ============================================================================

// forward fuehrt den Forward-Pass hinter dem Single-Flight-Gate aus.
// Warten auf das Gate respektiert ctx; ein einmal gestarteter Pass
// laeuft immer bis zum Ende durch.
func (e *Encoder) forward(ctx context.Context, run func() ([]float32, error)) ([]float32, error) {
	if err := e.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.gate.Release(1)

	return run()
}

// splitAndNormalize zerlegt den flachen Feature-Batch in Zeilen und
// normalisiert jede Zeile unabhaengig auf L2-Norm 1
func (e *Encoder) splitAndNormalize(flat []float32, n, dim int, op string) ([][]float32, error) {
	if len(flat) != n*dim {
		return nil, &ProcessError{Op: op, Err: errors.New("unexpected feature batch shape")}
	}

	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := flat[i*dim : (i+1)*dim]
		if err := normalizeRow(row); err != nil {
			return nil, &ProcessError{Op: op, Err: err}
		}
		vecs[i] = row
	}

	return vecs, nil
}

// normalizeRow normalisiert einen Embedding-Vektor in-place.
// Ein Null-Vektor waere eine Invarianten-Verletzung des Modells
// und wird als Fehler gemeldet statt stillschweigend durchgereicht.
func normalizeRow(vec []float32) error {
	var sum float64
	for _, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("embedding contains NaN or Inf values")
		}
		sum += f * f
	}

	if sum == 0 {
		return errors.New("embedding has zero norm")
	}

	norm := float32(1.0 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= norm
	}
	return nil
}
