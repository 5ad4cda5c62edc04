// MODUL: vector
// ZWECK: Aehnlichkeits-Mathematik auf Embedding-Vektoren
// INPUT: float32-Vektoren aus der Embedding-Pipeline
// OUTPUT: Skalare Aehnlichkeits-Scores
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: gonum/floats
// HINWEISE: Auf unit-norm Vektoren ist Kosinus gleich dem Skalarprodukt

package vector

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrDimensionMismatch bei Vektoren unterschiedlicher Laenge
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")

	// ErrZeroVector bei einem Null-Vektor im Kosinus
	ErrZeroVector = errors.New("vector: zero vector")
)

// Dot berechnet das Skalarprodukt zweier Vektoren
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	return floats.Dot(toFloat64(a), toFloat64(b)), nil
}

// Cosine berechnet die Kosinus-Aehnlichkeit zweier Vektoren.
// Das Ergebnis liegt in [-1, 1]; unit-norm Inputs liefern direkt
// das Skalarprodukt.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	fa, fb := toFloat64(a), toFloat64(b)
	na, nb := floats.Norm(fa, 2), floats.Norm(fb, 2)
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}

	sim := floats.Dot(fa, fb) / (na * nb)
	// Rundungsfehler koennen knapp ausserhalb [-1, 1] landen
	return math.Max(-1, math.Min(1, sim)), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
