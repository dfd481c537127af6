package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/metrics"
	chiTransport "github.com/kailas-cloud/docqa/internal/transport/chi"
	"github.com/kailas-cloud/docqa/internal/version"
)

func runServe(ctx context.Context, g globalFlags) error {
	a, cleanup, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := a.logger

	logger.Info("Starting docqa",
		zap.String("env", g.env),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("port", a.cfg.HTTP.Port),
	)

	metrics.RegisterHTTPMetrics()

	// Typed nil pointers must not leak into the interface parameters.
	var answerer chiTransport.Answerer
	if a.answer != nil {
		answerer = a.answer
	}
	server := chiTransport.NewServer(
		a.retrieval, answerer, a.normalizer, a.explorer, a.queryEmbedder, a.health, logger,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	stopReload := a.watchReload()
	defer stopReload()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
	return nil
}

// watchReload starts reloading the vocabulary on SIGHUP. The returned func
// stops signal delivery and waits for the reload goroutine to exit.
func (a *app) watchReload() func() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.reloadOnSignal(hup)
	}()
	return func() {
		signal.Stop(hup)
		close(hup)
		<-done
	}
}

// reloadOnSignal swaps in a freshly loaded vocabulary on every SIGHUP.
// A load failure keeps the current vocabulary.
func (a *app) reloadOnSignal(sig <-chan os.Signal) {
	for range sig {
		v, err := loadVocabulary(a.cfg.Normalizer.VocabularyFile)
		if err != nil {
			a.logger.Error("Vocabulary reload failed", zap.Error(err))
			continue
		}
		a.normalizer.SwapVocabulary(v)
		a.logger.Info("Vocabulary reloaded", zap.Int("terms", v.Len()))
	}
}
