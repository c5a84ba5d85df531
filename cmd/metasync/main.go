// Command metasync reconciles object store metadata into a search index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/metasync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/metasync/internal/adapters/driving/cli"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetConfigStoreFactory(func(path string) (driven.ConfigStore, error) {
		return file.NewConfigStore(path)
	})
	cli.SetBootstrap(func(ctx context.Context, opts cli.Options) (*cli.Services, error) {
		store, err := file.NewConfigStore(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		return buildServices(ctx, store, opts, os.Stderr)
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
