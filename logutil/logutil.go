// MODUL: logutil
// ZWECK: Konstruktion des slog-Loggers fuer den gesamten Prozess
// INPUT: io.Writer, slog.Level
// OUTPUT: Konfigurierter *slog.Logger
// NEBENEFFEKTE: keine (SetDefault passiert beim Aufrufer)
// ABHAENGIGKEITEN: log/slog (Standardbibliothek)
// HINWEISE: Quellangaben werden auf Datei:Zeile gekuerzt

package logutil

import (
	"io"
	"log/slog"
	"path/filepath"
)

// NewLogger erstellt einen Text-Logger mit Quellangaben.
// Source-Attribute werden auf den Dateinamen gekuerzt, damit die
// Logzeilen lesbar bleiben.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}
