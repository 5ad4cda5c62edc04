//go:build cgo

// MODUL: onnx/session
// ZWECK: ONNX Runtime Session Management - Erstellen, Konfigurieren, Ausfuehren
// INPUT: Modell-Pfad (.onnx), Session-Optionen, Input-Tensoren
// OUTPUT: Session-Handle, flache float32 Output-Batches
// NEBENEFFEKTE: Alloziert ONNX Runtime Ressourcen, GPU Memory
// ABHAENGIGKEITEN: onnxruntime_go
// HINWEISE: Thread-sicher fuer sequentielle Nutzung, Destroy() MUSS
//           aufgerufen werden

package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ============================================================================
// Runtime Initialisierung (Singleton)
// ============================================================================

var (
	runtimeInitOnce sync.Once
	runtimeInitErr  error
)

// InitRuntime initialisiert die ONNX Runtime einmalig.
// Wird automatisch beim ersten Session-Erstellen aufgerufen.
func InitRuntime() error {
	runtimeInitOnce.Do(func() {
		runtimeInitErr = ort.InitializeEnvironment()
	})
	return runtimeInitErr
}

// DestroyRuntime gibt die ONNX Runtime frei.
// Sollte am Programmende aufgerufen werden.
func DestroyRuntime() error {
	return ort.DestroyEnvironment()
}

// ============================================================================
// Session Struktur
// ============================================================================

// Session verwaltet eine ONNX Runtime Inference Session mit genau
// einem Input- und einem Output-Tensor und dynamischer Batch-Dimension.
type Session struct {
	inner       *ort.DynamicAdvancedSession
	inputName   string
	outputName  string
	inputShape  []int64 // Aus der Modell-Datei gelesen, z.B. [N, C, H, W]
	outputShape []int64 // Aus der Modell-Datei gelesen, z.B. [N, D]
}

// SessionOptions konfiguriert die ONNX Session
type SessionOptions struct {
	// InputName ist der ONNX Input-Tensor Name
	InputName string

	// OutputName ist der ONNX Output-Tensor Name
	OutputName string

	// NumThreads fuer Intra-Op Parallelisierung (0 = auto)
	NumThreads int

	// UseGPU aktiviert CUDA Execution Provider
	UseGPU bool

	// GPUDeviceID ist der GPU Index (Standard: 0)
	GPUDeviceID int
}

// ============================================================================
// Session Konstruktor
// ============================================================================

// CreateSession erstellt eine neue ONNX Inference Session.
func CreateSession(modelPath string, opts SessionOptions) (*Session, error) {
	// Runtime initialisieren falls noetig
	if err := InitRuntime(); err != nil {
		return nil, fmt.Errorf("runtime init: %w", err)
	}

	// Session-Optionen konfigurieren
	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessOpts.Destroy()

	// Thread-Anzahl setzen
	if opts.NumThreads > 0 {
		if err := sessOpts.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			return nil, fmt.Errorf("threads setzen: %w", err)
		}
	}

	// GPU aktivieren wenn gewuenscht
	if opts.UseGPU {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err == nil {
			_ = cudaOpts.Update(map[string]string{
				"device_id": fmt.Sprintf("%d", opts.GPUDeviceID),
			})
			_ = sessOpts.AppendExecutionProviderCUDA(cudaOpts)
			cudaOpts.Destroy()
		}
		// Bei Fehler: Fallback auf CPU (kein Error)
	}

	// Session erstellen
	inner, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		sessOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("session erstellen: %w", err)
	}

	sess := &Session{
		inner:      inner,
		inputName:  opts.InputName,
		outputName: opts.OutputName,
	}

	// Input/Output-Shapes aus Modell-Datei lesen (nicht aus Session)
	if inputs, outputs, err := ort.GetInputOutputInfo(modelPath); err == nil {
		for _, info := range inputs {
			if info.Name == opts.InputName {
				sess.inputShape = info.Dimensions
				break
			}
		}
		for _, info := range outputs {
			if info.Name == opts.OutputName {
				sess.outputShape = info.Dimensions
				break
			}
		}
	}

	return sess, nil
}

// GetImageSize extrahiert die Bildgroesse aus der Input-Shape.
// Erwartet NCHW Format [N, C, H, W], gibt H zurueck.
// Bei Fehler oder unbekannter Shape: Fallback auf 224 (Standard fuer ViT)
func (s *Session) GetImageSize() int {
	if len(s.inputShape) >= 4 {
		h := s.inputShape[2]
		// Plausibilitaets-Check: Groesse zwischen 64 und 1024 Pixel
		if h > 0 && h <= 1024 {
			return int(h)
		}
	}
	// Fallback: 224 ist Standard fuer die meisten Vision Transformer
	return 224
}

// GetEmbeddingDim extrahiert die Embedding-Dimension aus der
// Output-Shape [N, D]. Fallback: 512 (ViT-B CLIP Projektionsdimension)
func (s *Session) GetEmbeddingDim() int {
	if len(s.outputShape) >= 2 {
		d := s.outputShape[len(s.outputShape)-1]
		if d > 0 && d <= 8192 {
			return int(d)
		}
	}
	return 512
}

// ============================================================================
// Inference
// ============================================================================

// runBatch fuehrt einen Forward-Pass mit dynamischer Batch-Dimension aus.
// input: flacher Input-Tensor, inputShape inklusive Batch-Dimension
// outputLen: Gesamtgroesse des flachen Outputs (n * embeddingDim)
func runBatch[T ort.TensorData](s *Session, inputShape ort.Shape, input []T, outputShape ort.Shape, outputLen int) ([]float32, error) {
	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputData := make([]float32, outputLen)
	outputTensor, err := ort.NewTensor(outputShape, outputData)
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = s.inner.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	// Ergebnis kopieren, der Tensor-Speicher wird gleich freigegeben
	result := make([]float32, outputLen)
	copy(result, outputTensor.GetData())

	return result, nil
}

// Destroy gibt alle Session-Ressourcen frei
func (s *Session) Destroy() {
	if s.inner != nil {
		s.inner.Destroy()
		s.inner = nil
	}
}
