// MODUL: server/handlers_similarity
// ZWECK: HTTP Handler fuer den Similarity-Endpoint
// INPUT: JSON mit Base64-Bildern und/oder Texten
// OUTPUT: Kosinus-Aehnlichkeit der beiden Embeddings
// NEBENEFFEKTE: Generiert Embeddings ueber die Pipeline
// ABHAENGIGKEITEN: vector (intern), api (intern), gin
// HINWEISE: Pro Seite ist genau ein Input erlaubt; Bild gegen Text
//           ist explizit zulaessig (geteilter Embedding-Raum)

package server

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/clipserve/api"
	"github.com/7blacky7/clipserve/vector"
)

// SimilarityHandler verarbeitet POST /api/similarity
func (s *Server) SimilarityHandler(c *gin.Context) {
	var req api.SimilarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	vecA, ok := s.embedSide(c, "a", req.ImageA, req.TextA)
	if !ok {
		return
	}
	vecB, ok := s.embedSide(c, "b", req.ImageB, req.TextB)
	if !ok {
		return
	}

	sim, err := vector.Cosine(vecA, vecB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	info := s.handle.Info()
	c.JSON(http.StatusOK, api.SimilarityResponse{
		Similarity:   sim,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	})
}

// embedSide berechnet das Embedding einer Request-Seite.
// Schreibt bei Fehlern selbst die Antwort und meldet ok=false.
func (s *Server) embedSide(c *gin.Context, side, image, text string) ([]float32, bool) {
	switch {
	case image != "" && text != "":
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: fmt.Sprintf("side %s: image and text are mutually exclusive", side),
		})
		return nil, false
	case image == "" && text == "":
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error: fmt.Sprintf("side %s: image or text required", side),
		})
		return nil, false
	}

	if image != "" {
		data, err := base64.StdEncoding.DecodeString(image)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error: fmt.Sprintf("side %s: invalid base64 image: %v", side, err),
			})
			return nil, false
		}

		vec, err := s.encoder.EncodeImage(c.Request.Context(), data)
		if err != nil {
			s.writeEmbedError(c, err)
			return nil, false
		}
		return vec, true
	}

	vec, err := s.encoder.EncodeText(c.Request.Context(), text)
	if err != nil {
		s.writeEmbedError(c, err)
		return nil, false
	}
	return vec, true
}
