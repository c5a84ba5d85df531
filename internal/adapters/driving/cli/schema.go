package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the index schema",
}

var schemaVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Add missing document fields to the index mapping",
	Long: `Checks the index mapping for every fixed document field and adds the
missing ones. Existing fields are never changed. User metadata fields are
left to dynamic mapping.`,
	Args: cobra.NoArgs,
	RunE: runSchemaVerify,
}

func init() {
	schemaCmd.AddCommand(schemaVerifyCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaVerify(cmd *cobra.Command, _ []string) error {
	s, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if s.Schema == nil {
		return fmt.Errorf("schema verification not configured")
	}
	if err := s.Schema.Verify(cmd.Context()); err != nil {
		return fmt.Errorf("verify schema: %w", err)
	}
	cmd.Println("Schema is up to date.")
	return nil
}
