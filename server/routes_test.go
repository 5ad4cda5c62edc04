// MODUL: server/routes_test
// ZWECK: HTTP-Tests fuer alle Endpoints mit Stub-Backend
// INPUT: httptest-Requests gegen den Router
// OUTPUT: Testresultate
// NEBENEFFEKTE: Temporaere Merges-Datei fuer den Tokenizer
// ABHAENGIGKEITEN: testing, net/http/httptest, gin (TestMode)
// HINWEISE: Kein ONNX Runtime noetig, das Backend ist ein Stub

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/clipserve/api"
	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/metrics"
	"github.com/7blacky7/clipserve/tokenizer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubBackend liefert deterministische, vom Input abhaengige Features
type stubBackend struct {
	dim     int
	imgSize int
}

func (b *stubBackend) EncodeImageBatch(pixels []float32, n int) ([]float32, error) {
	plane := 3 * b.imgSize * b.imgSize
	out := make([]float32, 0, n*b.dim)
	for i := 0; i < n; i++ {
		var sum float32
		for _, v := range pixels[i*plane : (i+1)*plane] {
			sum += v
		}
		out = append(out, sum, sum*0.25+1, 2, 3)
	}
	return out, nil
}

func (b *stubBackend) EncodeTextBatch(tokens []int64, n int) ([]float32, error) {
	rowLen := len(tokens) / n
	out := make([]float32, 0, n*b.dim)
	for i := 0; i < n; i++ {
		var sum float32
		for _, id := range tokens[i*rowLen : (i+1)*rowLen] {
			sum += float32(id)
		}
		out = append(out, sum, sum*0.25+1, 2, 3)
	}
	return out, nil
}

func (b *stubBackend) Info() clip.ModelInfo {
	return clip.ModelInfo{
		Name:          "ViT-B-32",
		Version:       "openai",
		Device:        "cpu",
		EmbeddingDim:  b.dim,
		ImageSize:     b.imgSize,
		ContextLength: tokenizer.ContextLength,
		Mean:          [3]float32{0.5, 0.5, 0.5},
		Std:           [3]float32{0.5, 0.5, 0.5},
	}
}

func (b *stubBackend) Close() error { return nil }

// loadedTestServer baut einen Server mit geladenem Stub-Backend
func loadedTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	mergesPath := filepath.Join(t.TempDir(), "merges.txt")
	if err := os.WriteFile(mergesPath, []byte("#version: 0.2\nc a\nca t</w>\na t</w>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	handle := clip.NewHandle()
	loader := func(_ context.Context, _, _ string) (clip.Backend, *tokenizer.Tokenizer, error) {
		tok, err := tokenizer.Load(mergesPath)
		if err != nil {
			return nil, nil, err
		}
		return &stubBackend{dim: 4, imgSize: 8}, tok, nil
	}
	if err := handle.Load(context.Background(), "ViT-B-32", "cpu", loader); err != nil {
		t.Fatalf("Load() Fehler: %v", err)
	}

	rec := metrics.NewRecorder()
	encoder := clip.NewEncoder(handle, 16, clip.WithMetrics(rec))
	s := NewServer(handle, encoder, rec)
	return s, s.GenerateRoutes()
}

func testPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Antwort dekodieren: %v (body: %s)", err, w.Body.String())
	}
	return out
}

func normOf(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// ============================================================================
// Probes
// ============================================================================

func TestHealthz(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, erwartet 200", w.Code)
	}
	if resp := decodeBody[api.StatusResponse](t, w); resp.Status != "ok" {
		t.Errorf("Status = %q, erwartet ok", resp.Status)
	}
}

func TestReadyzKalteInstanz(t *testing.T) {
	handle := clip.NewHandle()
	rec := metrics.NewRecorder()
	s := NewServer(handle, clip.NewEncoder(handle, 16), rec)
	h := s.GenerateRoutes()

	w := doJSON(t, h, http.MethodGet, "/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, erwartet 503 vor Load", w.Code)
	}
}

func TestReadyzGeladen(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/readyz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, erwartet 200", w.Code)
	}
	resp := decodeBody[api.StatusResponse](t, w)
	if resp.Status != "ready" || resp.Model != "ViT-B-32" || resp.Device != "cpu" {
		t.Errorf("unerwartete Antwort: %+v", resp)
	}
}

func TestEmbedKalteInstanzLiefert503(t *testing.T) {
	handle := clip.NewHandle()
	rec := metrics.NewRecorder()
	s := NewServer(handle, clip.NewEncoder(handle, 16), rec)
	h := s.GenerateRoutes()

	w := doJSON(t, h, http.MethodPost, "/embed/text", api.TextEmbedRequest{Text: "a cat"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, erwartet 503", w.Code)
	}
}

// ============================================================================
// Bild-Endpoints
// ============================================================================

func TestEmbedImageRawBody(t *testing.T) {
	_, h := loadedTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/embed/image", bytes.NewReader(testPNG(t, color.White)))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.EmbedResponse](t, w)
	if len(resp.Embedding) != 4 {
		t.Errorf("len(Embedding) = %d, erwartet 4", len(resp.Embedding))
	}
	if math.Abs(normOf(resp.Embedding)-1.0) > 1e-5 {
		t.Errorf("L2-Norm = %f, erwartet 1.0", normOf(resp.Embedding))
	}
	if resp.ModelName != "ViT-B-32" || resp.ModelVersion != "openai" {
		t.Errorf("Modell-Metadaten falsch: %+v", resp)
	}
}

func multipartBody(t *testing.T, field string, files ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := mw.CreateFormFile(field, fmt.Sprintf("bild-%d.png", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestEmbedImageMultipart(t *testing.T) {
	_, h := loadedTestServer(t)

	body, contentType := multipartBody(t, "file", testPNG(t, color.Black))
	req := httptest.NewRequest(http.MethodPost, "/embed/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
}

func TestEmbedImageDefekteBytes(t *testing.T) {
	_, h := loadedTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/embed/image", strings.NewReader("kein bild"))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, erwartet 400", w.Code)
	}
}

func TestEmbedImageLeererBody(t *testing.T) {
	_, h := loadedTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/embed/image", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, erwartet 400", w.Code)
	}
}

func TestEmbedImagesBatchMitTruncation(t *testing.T) {
	_, h := loadedTestServer(t)

	files := make([][]byte, 20)
	for i := range files {
		files[i] = testPNG(t, color.RGBA{uint8(i * 10), 0, 0, 255})
	}
	body, contentType := multipartBody(t, "files", files...)

	req := httptest.NewRequest(http.MethodPost, "/embed/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.BatchEmbedResponse](t, w)
	if len(resp.Embeddings) != 16 {
		t.Errorf("len(Embeddings) = %d, erwartet 16 (Batch-Limit)", len(resp.Embeddings))
	}

	// Der Request-Counter zaehlt alle eingereichten Items, auch die
	// ueber dem Batch-Limit verworfenen
	mw := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if !strings.Contains(mw.Body.String(), "embed_image_requests_total 20") {
		t.Error("embed_image_requests_total zaehlt nicht alle 20 Uploads")
	}
}

func TestEmbedImagesOhneDateien(t *testing.T) {
	_, h := loadedTestServer(t)

	body, contentType := multipartBody(t, "files")
	req := httptest.NewRequest(http.MethodPost, "/embed/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, erwartet 400", w.Code)
	}
}

// ============================================================================
// Text-Endpoints
// ============================================================================

func TestEmbedText(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/embed/text", api.TextEmbedRequest{Text: "a cat"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.EmbedResponse](t, w)
	if math.Abs(normOf(resp.Embedding)-1.0) > 1e-5 {
		t.Errorf("L2-Norm = %f, erwartet 1.0", normOf(resp.Embedding))
	}
}

func TestEmbedTextUngueltigesJSON(t *testing.T) {
	_, h := loadedTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/embed/text", strings.NewReader("{kaputt"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, erwartet 400", w.Code)
	}
}

func TestEmbedTexts(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/embed/texts", api.TextBatchEmbedRequest{Texts: []string{"a", "cat", "at"}})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.BatchEmbedResponse](t, w)
	if len(resp.Embeddings) != 3 {
		t.Errorf("len(Embeddings) = %d, erwartet 3", len(resp.Embeddings))
	}
}

func TestEmbedTextsLeereListe(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/embed/texts", api.TextBatchEmbedRequest{Texts: nil})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, erwartet 400", w.Code)
	}
}

// ============================================================================
// Similarity
// ============================================================================

func TestSimilarityIdentischeTexte(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/similarity", api.SimilarityRequest{TextA: "a cat", TextB: "a cat"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.SimilarityResponse](t, w)
	if math.Abs(resp.Similarity-1.0) > 1e-6 {
		t.Errorf("Similarity = %f, erwartet 1.0", resp.Similarity)
	}
}

func TestSimilarityBildGegenText(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/api/similarity", api.SimilarityRequest{
		ImageA: base64.StdEncoding.EncodeToString(testPNG(t, color.White)),
		TextB:  "a cat",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.SimilarityResponse](t, w)
	if resp.Similarity < -1 || resp.Similarity > 1 {
		t.Errorf("Similarity = %f ausserhalb [-1, 1]", resp.Similarity)
	}
}

func TestSimilarityValidierung(t *testing.T) {
	_, h := loadedTestServer(t)

	tests := []struct {
		name string
		req  api.SimilarityRequest
	}{
		{"Seite A leer", api.SimilarityRequest{TextB: "a"}},
		{"Seite B leer", api.SimilarityRequest{TextA: "a"}},
		{"Bild und Text auf einer Seite", api.SimilarityRequest{ImageA: "eA==", TextA: "a", TextB: "b"}},
		{"Ungueltiges Base64", api.SimilarityRequest{ImageA: "kein base64!", TextB: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/api/similarity", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, erwartet 400", w.Code)
			}
		})
	}
}

// ============================================================================
// Metrics und Version
// ============================================================================

func TestMetricsExport(t *testing.T) {
	_, h := loadedTestServer(t)

	if w := doJSON(t, h, http.MethodPost, "/embed/text", api.TextEmbedRequest{Text: "a"}); w.Code != http.StatusOK {
		t.Fatalf("Vorbereitung fehlgeschlagen: %d", w.Code)
	}

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, erwartet 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "embed_text_requests_total 1") {
		t.Error("Export enthaelt embed_text_requests_total nicht")
	}
	if !strings.Contains(body, `embed_duration_seconds_count{type="text"} 1`) {
		t.Error("Export enthaelt embed_duration_seconds nicht")
	}
}

func TestVersionEndpoint(t *testing.T) {
	_, h := loadedTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/version", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, erwartet 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "version") {
		t.Errorf("unerwarteter Body: %s", w.Body.String())
	}
}
