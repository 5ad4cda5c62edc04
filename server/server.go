// MODUL: server/server
// ZWECK: Server-Lifecycle - Modell laden, lauschen, sauber beenden
// INPUT: net.Listener, Konfiguration aus envconfig
// OUTPUT: Laufender HTTP-Server
// NEBENEFFEKTE: Downloads beim ersten Start, ONNX Runtime Init,
//               Signal-Handler fuer SIGINT/SIGTERM
// ABHAENGIGKEITEN: clip, hub, metrics, envconfig, logutil
// HINWEISE: Das Modell wird VOR dem Listener geladen; ein Load-Fehler
//           beendet den Start, es gibt keinen degradierten Betrieb

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/7blacky7/clipserve/clip"
	"github.com/7blacky7/clipserve/envconfig"
	"github.com/7blacky7/clipserve/hub"
	"github.com/7blacky7/clipserve/logutil"
	"github.com/7blacky7/clipserve/metrics"
	"github.com/7blacky7/clipserve/onnx"
	"github.com/7blacky7/clipserve/version"
)

// Serve laedt das konfigurierte Modell und bedient den Listener bis
// zum Shutdown-Signal
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	handle := clip.NewHandle()
	rec := metrics.NewRecorder()
	encoder := clip.NewEncoder(handle, envconfig.BatchSize(), clip.WithMetrics(rec))

	ctx, done := context.WithCancel(context.Background())
	defer done()

	// Modell blockierend laden: erst wenn /readyz gruen werden kann
	// beginnt der Listener zu arbeiten
	if err := handle.Load(ctx, envconfig.ModelName(), envconfig.ModelDevice(), hub.DefaultLoader()); err != nil {
		return err
	}

	s := &Server{
		addr:    ln.Addr(),
		handle:  handle,
		encoder: encoder,
		rec:     rec,
	}

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
	}

	// listen for a ctrl+c and unload the model
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		if err := handle.Unload(); err != nil {
			slog.Warn("unload on shutdown", "error", err)
		}
		if err := onnx.DestroyRuntime(); err != nil {
			slog.Warn("destroy onnx runtime", "error", err)
		}
		done()
	}()

	err := srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to
	// be done otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}
