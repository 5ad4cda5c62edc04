// MODUL: normalize
// ZWECK: Preprocessing-Transform und Tensor-Konvertierung fuer CLIP
// INPUT: ImageInput, Ziel-Groesse, Normalisierungs-Parameter (mean, std)
// OUTPUT: float32-Tensor im NCHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw
// HINWEISE: Resize der kurzen Seite + Center-Crop, wie die Transform
//           des pretrained Modells; CLIP mean/std Presets

package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// Normalisierungswerte des pretrained CLIP (OpenAI)
var (
	ClipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	ClipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// PreprocessImage fuehrt die Modell-Transform vollstaendig durch:
// 1. Skalierung der kurzen Seite auf targetSize (bicubic)
// 2. Center-Crop auf targetSize x targetSize
// 3. Skalierung auf [0,1] und (x-mean)/std Normalisierung
// 4. CHW Layout (Channel-First)
//
// Rueckgabe: float32 Slice der Laenge 3 * targetSize * targetSize
func PreprocessImage(img *ImageInput, targetSize int, mean, std [3]float32) ([]float32, error) {
	resized, err := resizeShortSide(img, targetSize)
	if err != nil {
		return nil, err
	}

	cropped, err := CenterCrop(resized, targetSize, targetSize)
	if err != nil {
		return nil, err
	}

	return NormalizeRGB(cropped, mean, std), nil
}

// resizeShortSide skaliert so, dass die kuerzere Seite == targetSize ist.
// Das Seitenverhaeltnis bleibt erhalten, der Crop schneidet den Rest ab.
func resizeShortSide(img *ImageInput, targetSize int) (*ImageInput, error) {
	w, h := img.Width, img.Height

	var newW, newH int
	if w < h {
		newW = targetSize
		newH = (h*targetSize + w/2) / w
	} else {
		newH = targetSize
		newW = (w*targetSize + h/2) / h
	}
	if newW < targetSize {
		newW = targetSize
	}
	if newH < targetSize {
		newH = targetSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img.Image, img.Image.Bounds(), draw.Src, nil)

	return &ImageInput{
		Image:  dst,
		Width:  newW,
		Height: newH,
		Format: img.Format,
	}, nil
}

// NormalizeRGB normalisiert ein Bild mit gegebenen mean/std Werten
// Gibt einen float32-Slice im CHW Format zurueck (Channel-First)
func NormalizeRGB(img *ImageInput, mean, std [3]float32) []float32 {
	bounds := img.Image.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	size := h * w

	// Pre-allozieren fuer CHW Layout
	result := make([]float32, size*3)
	rOffset := 0
	gOffset := size
	bOffset := size * 2

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := extractRGB(img, x, y)

			// Normalisierung anwenden
			result[rOffset+idx] = (r - mean[0]) / std[0]
			result[gOffset+idx] = (g - mean[1]) / std[1]
			result[bOffset+idx] = (b - mean[2]) / std[2]
			idx++
		}
	}

	return result
}

// extractRGB holt RGB-Werte als float32 im Bereich [0,1]
func extractRGB(img *ImageInput, x, y int) (float32, float32, float32) {
	c := img.Image.At(x, y)
	r, g, b, _ := c.RGBA()
	// RGBA gibt 16-bit Werte zurueck, auf 8-bit konvertieren
	return float32(r>>8) / 255.0, float32(g>>8) / 255.0, float32(b>>8) / 255.0
}

// Dimensions gibt die Bild-Dimensionen als (H, W, C) zurueck
func (img *ImageInput) Dimensions() (int, int, int) {
	return img.Height, img.Width, 3
}
