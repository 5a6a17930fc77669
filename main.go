// Command jcmp-relay runs the MIDI relay server: a WebSocket signaling
// endpoint whose clients can negotiate a WebRTC data channel for
// timestamped performance events, smoothed through an adaptive jitter
// buffer and played on the local MIDI output.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jenojiji/jcmp-relay/internal/midisink"
	"github.com/jenojiji/jcmp-relay/internal/relay"
	"github.com/jenojiji/jcmp-relay/internal/schedule"
	"github.com/jenojiji/jcmp-relay/internal/stats"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address for HTTP status and signaling")
	flag.Parse()

	debug := os.Getenv("JCMP_DEBUG") == "1"
	logger := newLogger(debug)
	defer func() { _ = logger.Sync() }()

	sink := midisink.Open(logger.Named("sink"))
	defer sink.Close()

	queue := schedule.NewQueue()
	counters := &stats.Counters{}
	registry := relay.NewRegistry()

	dispatcher := schedule.NewDispatcher(queue, sink, counters, logger.Named("dispatch"), debug)
	server := relay.NewServer(logger.Named("relay"), registry, queue, counters, sink, debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go dispatcher.Run(ctx)
	go server.RunTelemetry(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/api/status", server.HandleStatus)

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		// Hijacked websocket conns are not closed by Shutdown.
		for _, c := range registry.Snapshot() {
			registry.Remove(c.ID)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening",
		zap.String("addr", *addr),
		zap.Bool("midiConnected", sink.Connected()),
		zap.String("midiPort", sink.PortName()))

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("shutting down")
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
