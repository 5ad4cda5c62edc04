// MODUL: hub/models
// ZWECK: Registry bekannter CLIP-Modelle mit Download-Quellen
// INPUT: Logischer Modellname, z.B. "ViT-B-32"
// OUTPUT: ModelSpec mit HuggingFace Repo und Dateinamen
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: Keine
// HINWEISE: Alle Eintraege tragen das "openai" Pretraining-Tag

package hub

import (
	"fmt"
	"sort"
)

// Standard-Dateinamen im Modell-Cache
const (
	VisualFile  = "visual.onnx"
	TextualFile = "textual.onnx"
	MergesFile  = "merges.txt"
)

// ModelSpec beschreibt ein bekanntes CLIP-Modell
type ModelSpec struct {
	// Name ist der logische Modellname
	Name string

	// Version ist das Pretraining-Tag
	Version string

	// Repo ist die HuggingFace Model-ID
	Repo string

	// RemoteFiles bildet lokale Dateinamen auf Pfade im Repo ab
	RemoteFiles map[string]string

	// Description beschreibt das Modell
	Description string
}

// KnownModels enthaelt alle bekannten CLIP-Modelle
var KnownModels = map[string]ModelSpec{
	"ViT-B-32": newClipSpec("ViT-B-32", "openai/clip-vit-base-patch32",
		"OpenAI CLIP ViT-B/32 - 512-dim, Patch 32"),
	"ViT-B-16": newClipSpec("ViT-B-16", "openai/clip-vit-base-patch16",
		"OpenAI CLIP ViT-B/16 - 512-dim, Patch 16"),
	"ViT-L-14": newClipSpec("ViT-L-14", "openai/clip-vit-large-patch14",
		"OpenAI CLIP ViT-L/14 - 768-dim, Patch 14"),
}

func newClipSpec(name, repo, desc string) ModelSpec {
	return ModelSpec{
		Name:    name,
		Version: "openai",
		Repo:    repo,
		RemoteFiles: map[string]string{
			VisualFile:  "onnx/" + VisualFile,
			TextualFile: "onnx/" + TextualFile,
			MergesFile:  MergesFile,
		},
		Description: desc,
	}
}

// Lookup sucht ein bekanntes Modell anhand des Namens
func Lookup(name string) (ModelSpec, error) {
	spec, ok := KnownModels[name]
	if !ok {
		return ModelSpec{}, fmt.Errorf("unknown model %q (known: %v)", name, KnownModelNames())
	}
	return spec, nil
}

// KnownModelNames gibt alle registrierten Modellnamen sortiert zurueck
func KnownModelNames() []string {
	names := make([]string, 0, len(KnownModels))
	for name := range KnownModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
