// MODUL: clip/errors
// ZWECK: Fehler-Taxonomie der Embedding-Pipeline
// INPUT: Urspruengliche Fehler aus Decode/Preprocessing/Inference
// OUTPUT: Kategorisierte Fehler fuer Transport-Mapping
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: errors (Standardbibliothek)
// HINWEISE: Handler mappen DecodeError/ProcessError auf 400,
//           ErrNotReady auf 503, LoadError bricht den Start ab

package clip

import (
	"errors"
	"fmt"
)

// ErrNotReady wird zurueckgegeben wenn auf das Modell zugegriffen wird
// bevor Load abgeschlossen ist oder nachdem Unload gelaufen ist
var ErrNotReady = errors.New("clip: model not ready")

// LoadError ist ein fataler Startup-Fehler beim Laden des Modells.
// Der Prozess darf danach keinen Inference-Traffic annehmen.
type LoadError struct {
	Model string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("clip: loading model %s failed: %v", e.Model, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DecodeError kategorisiert nicht dekodierbare Bild-Daten.
// Das ist ein Client-Fehler, kein Server-Fehler.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("clip: image decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProcessError kategorisiert alle uebrigen Fehler der Pipeline
// (Tokenisierung, Shape-Mismatch, Inference, Normalisierung).
// Die urspruengliche Ursache bleibt als Beschreibung erhalten.
type ProcessError struct {
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("clip: processing %s failed: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// IsDecodeError prueft ob ein Fehler ein DecodeError ist
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsProcessError prueft ob ein Fehler ein ProcessError ist
func IsProcessError(err error) bool {
	var pe *ProcessError
	return errors.As(err, &pe)
}
