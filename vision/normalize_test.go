// MODUL: normalize_test
// ZWECK: Tests fuer Preprocessing-Transform und Normalisierung
// INPUT: Synthetische Bilder
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image
// HINWEISE: Testet CHW Layout, CLIP-Normalisierung und Crop-Groessen

package vision

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage erzeugt ein einfaches Testbild
func createTestImage(w, h int, c color.Color) *ImageInput {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, c)
		}
	}
	return &ImageInput{
		Image:  rgba,
		Width:  w,
		Height: h,
		Format: FormatPNG,
	}
}

func TestNormalizeRGBClipWerte(t *testing.T) {
	// Weisses Bild: (1.0 - mean) / std pro Kanal
	img := createTestImage(2, 2, color.RGBA{255, 255, 255, 255})
	tensor := NormalizeRGB(img, ClipMean, ClipStd)

	if len(tensor) != 12 {
		t.Fatalf("Tensor Laenge = %d, erwartet 12", len(tensor))
	}

	for ch := 0; ch < 3; ch++ {
		expected := (1.0 - ClipMean[ch]) / ClipStd[ch]
		got := tensor[ch*4]
		if math.Abs(float64(got-expected)) > 1e-5 {
			t.Errorf("Kanal %d = %f, erwartet %f", ch, got, expected)
		}
	}
}

func TestNormalizeRGBLayoutCHW(t *testing.T) {
	// 1x2 Bild: links rot, rechts blau
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(0, 0, color.RGBA{255, 0, 0, 255})
	rgba.Set(1, 0, color.RGBA{0, 0, 255, 255})
	img := &ImageInput{Image: rgba, Width: 2, Height: 1, Format: FormatPNG}

	// Keine Normalisierung: mean 0, std 1
	tensor := NormalizeRGB(img, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})

	// CHW: [R0 R1 | G0 G1 | B0 B1]
	expected := []float32{1, 0, 0, 0, 0, 1}
	for i, want := range expected {
		if math.Abs(float64(tensor[i]-want)) > 1e-5 {
			t.Errorf("tensor[%d] = %f, erwartet %f", i, tensor[i], want)
		}
	}
}

func TestPreprocessImageGroesse(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"Quadratisch gross", 448, 448},
		{"Quadratisch klein", 100, 100},
		{"Breit", 640, 200},
		{"Hoch", 200, 640},
		{"Exakt Zielgroesse", 224, 224},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(tt.w, tt.h, color.RGBA{90, 90, 90, 255})

			tensor, err := PreprocessImage(img, 224, ClipMean, ClipStd)
			if err != nil {
				t.Fatalf("PreprocessImage() Fehler: %v", err)
			}

			if len(tensor) != 3*224*224 {
				t.Errorf("Tensor Laenge = %d, erwartet %d", len(tensor), 3*224*224)
			}
		})
	}
}

func TestPreprocessImageDeterministisch(t *testing.T) {
	img := createTestImage(300, 200, color.RGBA{10, 200, 60, 255})

	a, err := PreprocessImage(img, 224, ClipMean, ClipStd)
	if err != nil {
		t.Fatalf("PreprocessImage() Fehler: %v", err)
	}
	b, err := PreprocessImage(img, 224, ClipMean, ClipStd)
	if err != nil {
		t.Fatalf("PreprocessImage() Fehler: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Transform nicht deterministisch an Index %d: %f != %f", i, a[i], b[i])
		}
	}
}
