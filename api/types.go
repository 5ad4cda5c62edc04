// types.go - Embedding API Types
// Enthaelt: TextEmbedRequest, TextBatchEmbedRequest, EmbedResponse,
// BatchEmbedResponse, SimilarityRequest, SimilarityResponse, StatusResponse
package api

// TextEmbedRequest is the request body for POST /embed/text.
type TextEmbedRequest struct {
	// Text is the input string to embed.
	Text string `json:"text"`
}

// TextBatchEmbedRequest is the request body for POST /embed/texts.
type TextBatchEmbedRequest struct {
	// Texts are the input strings to embed, in order. Items beyond the
	// configured batch size are dropped from the tail.
	Texts []string `json:"texts"`
}

// EmbedResponse is the response for single-item embedding endpoints.
type EmbedResponse struct {
	// Embedding is the unit-norm feature vector.
	Embedding []float32 `json:"embedding"`

	// ModelName is the configured model identifier.
	ModelName string `json:"model_name"`

	// ModelVersion is the pretrained weight tag of the loaded model.
	ModelVersion string `json:"model_version"`
}

// BatchEmbedResponse is the response for batch embedding endpoints.
// Embeddings preserve the order of the retained input prefix.
type BatchEmbedResponse struct {
	Embeddings   [][]float32 `json:"embeddings"`
	ModelName    string      `json:"model_name"`
	ModelVersion string      `json:"model_version"`
}

// SimilarityRequest is the request body for POST /api/similarity.
// Each side takes either a base64 image or a text, never both.
// Mixing modalities across sides is allowed.
type SimilarityRequest struct {
	ImageA string `json:"image_a,omitempty"`
	ImageB string `json:"image_b,omitempty"`
	TextA  string `json:"text_a,omitempty"`
	TextB  string `json:"text_b,omitempty"`
}

// SimilarityResponse carries the cosine similarity of two embeddings.
type SimilarityResponse struct {
	Similarity   float64 `json:"similarity"`
	ModelName    string  `json:"model_name"`
	ModelVersion string  `json:"model_version"`
}

// StatusResponse is the body of the health and readiness probes.
type StatusResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Device string `json:"device,omitempty"`
}

// ErrorResponse is the uniform error body of all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
