// Package svcctx provides service context for dependency injection via context.
// Commands build the services once in the root command and extract what
// they need with the individual accessors.
package svcctx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackzampolin/dcpr/internal/config"
	"github.com/jackzampolin/dcpr/internal/home"
	"github.com/jackzampolin/dcpr/internal/metrics"
	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/providers"
	"github.com/jackzampolin/dcpr/internal/store"
)

// Services holds all core services that flow through context.
type Services struct {
	Config   *config.Manager
	Home     *home.Dir
	Logger   *slog.Logger
	Registry *providers.Registry
	Patterns *patterns.Library
	Metrics  *metrics.Metrics

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
}

// DBPath returns the configured corpus database path, defaulting to the
// home directory.
func (s *Services) DBPath() string {
	if s.Config != nil {
		if p := s.Config.Get().Storage.DBPath; p != "" {
			return p
		}
	}
	return s.Home.DBPath()
}

// Store opens the corpus store on first use.
func (s *Services) Store() (*store.Store, error) {
	s.storeOnce.Do(func() {
		if err := s.Home.EnsureExists(); err != nil {
			s.storeErr = err
			return
		}
		s.store, s.storeErr = store.Open(s.DBPath())
		if s.storeErr != nil {
			s.storeErr = fmt.Errorf("opening corpus store: %w", s.storeErr)
		}
	})
	return s.store, s.storeErr
}

// Close releases the store if it was opened.
func (s *Services) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context, falling back to
// slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ConfigFrom extracts the current configuration from context.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil && s.Config != nil {
		return s.Config.Get()
	}
	return config.DefaultConfig()
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// PatternsFrom extracts the pattern library from context.
func PatternsFrom(ctx context.Context) *patterns.Library {
	if s := ServicesFrom(ctx); s != nil {
		return s.Patterns
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// MetricsFrom extracts the metrics registry from context.
func MetricsFrom(ctx context.Context) *metrics.Metrics {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// StoreFrom opens or returns the corpus store from context.
func StoreFrom(ctx context.Context) (*store.Store, error) {
	s := ServicesFrom(ctx)
	if s == nil {
		return nil, fmt.Errorf("no services in context")
	}
	return s.Store()
}
