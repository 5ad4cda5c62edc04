// MODUL: hub/cache
// ZWECK: Lokaler Modell-Cache unter dem Models-Verzeichnis
// INPUT: ModelSpec, Cache-Basisverzeichnis
// OUTPUT: Lokale Pfade zu Modell-Dateien, Cache-Status
// NEBENEFFEKTE: Legt Verzeichnisse an
// ABHAENGIGKEITEN: Keine
// HINWEISE: Layout <basis>/<modellname>/<datei>; eine Datei gilt als
//           gecacht wenn sie existiert und nicht leer ist

package hub

import (
	"os"
	"path/filepath"
)

// ModelFiles buendelt die lokalen Pfade eines aufgeloesten Modells
type ModelFiles struct {
	Visual  string
	Textual string
	Merges  string
}

// CacheDir gibt das Cache-Verzeichnis eines Modells zurueck
func CacheDir(baseDir, modelName string) string {
	return filepath.Join(baseDir, modelName)
}

// CachedFiles gibt die erwarteten lokalen Pfade eines Modells zurueck
func CachedFiles(baseDir, modelName string) ModelFiles {
	dir := CacheDir(baseDir, modelName)
	return ModelFiles{
		Visual:  filepath.Join(dir, VisualFile),
		Textual: filepath.Join(dir, TextualFile),
		Merges:  filepath.Join(dir, MergesFile),
	}
}

// IsCached prueft ob alle Dateien eines Modells lokal vorliegen
func IsCached(baseDir, modelName string) bool {
	files := CachedFiles(baseDir, modelName)
	for _, path := range []string{files.Visual, files.Textual, files.Merges} {
		if !fileComplete(path) {
			return false
		}
	}
	return true
}

// fileComplete meldet true wenn die Datei existiert und nicht leer ist
func fileComplete(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Size() > 0
}
