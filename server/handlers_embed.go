// MODUL: server/handlers_embed
// ZWECK: HTTP Handler fuer Probes und Embedding-Endpoints
// INPUT: Multipart-Uploads, Raw-Bodies, JSON-Requests
// OUTPUT: JSON Responses mit unit-norm Embedding-Vektoren
// NEBENEFFEKTE: Treibt die Embedding-Pipeline
// ABHAENGIGKEITEN: clip (intern), api (intern), gin
// HINWEISE: /embed/image nimmt wahlweise ein Multipart-Feld "file"
//           oder den rohen Request-Body entgegen

package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/clipserve/api"
	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/envconfig"
)

// ============================================================================
// Probes
// ============================================================================

// HealthHandler verarbeitet GET /healthz.
// Liveness haengt nicht am Modell: der Prozess lebt, also 200.
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.StatusResponse{
		Status: "ok",
		Model:  envconfig.ModelName(),
	})
}

// ReadyHandler verarbeitet GET /readyz.
// Bis das Modell geladen ist antwortet die Probe mit 503, damit
// Load-Balancer keinen Traffic auf eine kalte Instanz schicken.
func (s *Server) ReadyHandler(c *gin.Context) {
	if !s.handle.IsReady() {
		c.JSON(http.StatusServiceUnavailable, api.StatusResponse{
			Status: s.handle.State().String(),
			Model:  envconfig.ModelName(),
		})
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.StatusResponse{
		Status: "ready",
		Model:  info.Name,
		Device: info.Device,
	})
}

// ============================================================================
// Bild-Endpoints
// ============================================================================

// EmbedImageHandler verarbeitet POST /embed/image
func (s *Server) EmbedImageHandler(c *gin.Context) {
	data, err := readImageBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	vec, err := s.encoder.EncodeImage(c.Request.Context(), data)
	if err != nil {
		s.writeEmbedError(c, err)
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.EmbedResponse{
		Embedding:    vec,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	})
}

// EmbedImagesHandler verarbeitet POST /embed/images
func (s *Server) EmbedImagesHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "no files provided"})
		return
	}

	// Nicht hier kuerzen: der Encoder zaehlt die Requests vor dem
	// Batch-Limit und verwirft Ueberhang selbst
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("read %s: %v", fh.Filename, err)})
			return
		}
		images = append(images, data)
	}

	vecs, err := s.encoder.EncodeImages(c.Request.Context(), images)
	if err != nil {
		s.writeEmbedError(c, err)
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.BatchEmbedResponse{
		Embeddings:   vecs,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	})
}

// ============================================================================
// Text-Endpoints
// ============================================================================

// EmbedTextHandler verarbeitet POST /embed/text
func (s *Server) EmbedTextHandler(c *gin.Context) {
	var req api.TextEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	vec, err := s.encoder.EncodeText(c.Request.Context(), req.Text)
	if err != nil {
		s.writeEmbedError(c, err)
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.EmbedResponse{
		Embedding:    vec,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	})
}

// EmbedTextsHandler verarbeitet POST /embed/texts
func (s *Server) EmbedTextsHandler(c *gin.Context) {
	var req api.TextBatchEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if len(req.Texts) == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "no texts provided"})
		return
	}

	vecs, err := s.encoder.EncodeTexts(c.Request.Context(), req.Texts)
	if err != nil {
		s.writeEmbedError(c, err)
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.BatchEmbedResponse{
		Embeddings:   vecs,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	})
}

// ============================================================================
// Hilfsfunktionen
// ============================================================================

// readImageBody liest die Bild-Bytes aus Multipart-Feld "file" oder
// dem rohen Request-Body
func readImageBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing form field %q: %w", "file", err)
		}
		return readFormFile(fh)
	}

	data, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty request body")
	}
	return data, nil
}

// readFormFile liest eine Multipart-Datei komplett ein
func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeEmbedError bildet die Fehler-Taxonomie der Pipeline auf
// HTTP-Status ab: Client-Fehler 400, kalte Instanz 503, Rest 500
func (s *Server) writeEmbedError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, clip.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "model not loaded"})
	case clip.IsDecodeError(err), clip.IsProcessError(err):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
	}
}
