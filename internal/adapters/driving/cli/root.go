// Package cli is the command line interface of metasync. It stands in for
// the container crawler: it reads change rows from a feed, batches them per
// container and hands them to the reconciliation engine.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/core/ports/driving"
	"github.com/custodia-labs/metasync/internal/logger"
)

// version is set at build time.
var version = "dev"

// Options are the global flags.
type Options struct {
	// ConfigPath is the TOML configuration file. Empty selects the default.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Verbose forces debug logging.
	Verbose bool
}

// Services are the engine components the commands drive.
type Services struct {
	Reconcilers driving.ReconcilerProvider
	Schema      driving.SchemaVerifier
	Logger      logger.Logger

	// Close releases the adapters. May be nil.
	Close func() error
}

// Bootstrap builds the services from the global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

// ConfigStoreFactory opens the configuration file at path.
type ConfigStoreFactory func(path string) (driven.ConfigStore, error)

var (
	options Options

	bootstrap   Bootstrap
	configStore ConfigStoreFactory
	services    *Services
)

var rootCmd = &cobra.Command{
	Use:   "metasync",
	Short: "Synchronise object metadata into a search index",
	Long: `metasync keeps a search index in step with the metadata of objects in
a Swift or S3-compatible store. It consumes a feed of container change rows,
skips objects whose indexed copy is current, and records per-container
progress so interrupted runs resume where they stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "", "configuration file (default ~/.metasync/config.toml)")
	flags.StringVar(&options.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetConfigStoreFactory sets how configuration files are opened.
func SetConfigStoreFactory(f ConfigStoreFactory) {
	configStore = f
}

// SetServices installs ready-made services.
func SetServices(s *Services) {
	services = s
}

// Execute runs the command line and releases services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// loadServices returns the services, building them on first use.
func loadServices(ctx context.Context) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(ctx, options)
	if err != nil {
		return nil, err
	}
	if s.Logger == nil {
		s.Logger = logger.Nop()
	}
	services = s
	return s, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		return
	}
	if err := services.Close(); err != nil {
		services.Logger.Warn("Failed to close services: %v", err)
	}
	services = nil
}
