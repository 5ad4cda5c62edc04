// MODUL: hub/loader
// ZWECK: Verdrahtet Registry, Download, Tokenizer und ONNX-Backend
// INPUT: Modellname und Device aus der Konfiguration
// OUTPUT: clip.Loader fuer Handle.Load
// NEBENEFFEKTE: Downloads beim ersten Start, laedt ONNX Sessions
// ABHAENGIGKEITEN: clip, onnx, tokenizer, envconfig
// HINWEISE: Der Loader ist der einzige Ort der alle Teile kennt

package hub

import (
	"context"
	"fmt"

	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/envconfig"
	"github.com/7blacky7/clipserve/onnx"
	"github.com/7blacky7/clipserve/tokenizer"
)

// DefaultLoader gibt den Standard-Loader zurueck: Modell-Dateien aus
// dem lokalen Cache bzw. von HuggingFace, Inference ueber ONNX Runtime.
func DefaultLoader() clip.Loader {
	return NewLoader(NewClient(), envconfig.Models())
}

// NewLoader erstellt einen Loader mit explizitem Client und Cache-Dir
func NewLoader(client *Client, baseDir string) clip.Loader {
	return func(ctx context.Context, name, device string) (clip.Backend, *tokenizer.Tokenizer, error) {
		spec, err := Lookup(name)
		if err != nil {
			return nil, nil, err
		}

		files, err := client.EnsureModel(ctx, spec, baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("ensure model: %w", err)
		}

		tok, err := tokenizer.Load(files.Merges)
		if err != nil {
			return nil, nil, fmt.Errorf("load tokenizer: %w", err)
		}

		backend, err := onnx.NewBackend(onnx.Config{
			ModelName:    spec.Name,
			ModelVersion: spec.Version,
			VisualPath:   files.Visual,
			TextualPath:  files.Textual,
			Device:       device,
			Threads:      envconfig.Threads(),
		})
		if err != nil {
			return nil, nil, err
		}

		return backend, tok, nil
	}
}
