package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

const masked = "********"

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfig() (driven.ConfigStore, error) {
	if configStore == nil {
		return nil, errors.New("config store not configured")
	}
	return configStore(options.ConfigPath)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(store.Path()); err == nil && !configForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", store.Path())
	}

	settings := domain.DefaultSettings()
	settings.Index.Name = "metadata"
	if err := store.Save(settings); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cmd.Printf("Wrote %s\n", store.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	settings, err := store.Load()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(redact(settings))
	if err != nil {
		return err
	}
	cmd.Printf("# %s\n%s", store.Path(), data)
	if err := settings.Validate(); err != nil {
		cmd.Printf("# invalid: %v\n", err)
	}
	return nil
}

// redact hides secrets.
func redact(s domain.Settings) domain.Settings {
	for _, secret := range []*string{&s.Index.Password, &s.Source.Key, &s.Source.Token, &s.Source.SecretKey} {
		if *secret != "" {
			*secret = masked
		}
	}
	return s
}
