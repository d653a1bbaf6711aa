// Package profiling serves net/http/pprof on a separate, loopback-only listener.
package profiling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	infracontext "github.com/jonesrussell/north-cloud/headlines/infrastructure/context"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
)

const (
	DefaultAddress    = "localhost:6060"
	readHeaderTimeout = 5 * time.Second
)

// Config enables the pprof listener. It is off unless Enabled is set.
type Config struct {
	Enabled bool   `env:"ENABLE_PROFILING" yaml:"enabled"`
	Address string `env:"PPROF_ADDRESS"    yaml:"address"`
}

func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
}

// Handler exposes the standard /debug/pprof/ endpoints on a private mux so
// nothing leaks onto http.DefaultServeMux.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Run serves pprof until ctx is done. With profiling disabled it just waits
// for ctx, so callers can always start it alongside the main server.
func Run(ctx context.Context, cfg Config, log infralogger.Logger) error {
	if !cfg.Enabled {
		<-ctx.Done()
		return nil
	}
	cfg.SetDefaults()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting pprof server", infralogger.String("addr", cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("pprof server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := infracontext.WithShutdownTimeout()
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pprof shutdown: %w", err)
	}
	return nil
}
