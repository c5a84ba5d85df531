package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var progressContainerID string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or change per-container progress",
	Long: `Progress is the offset of the last change row applied for a container.
It is recorded together with the index name and reads as zero once the
configured index changes.`,
}

var progressGetCmd = &cobra.Command{
	Use:   "get <account> <container>",
	Short: "Print the stored progress of a container",
	Args:  cobra.ExactArgs(2),
	RunE:  runProgressGet,
}

var progressSetCmd = &cobra.Command{
	Use:   "set <account> <container> <offset>",
	Short: "Overwrite the stored progress of a container",
	Args:  cobra.ExactArgs(3),
	RunE:  runProgressSet,
}

func init() {
	progressCmd.PersistentFlags().StringVar(&progressContainerID, "container-id", "",
		"progress key (default <account>/<container>)")
	progressCmd.AddCommand(progressGetCmd)
	progressCmd.AddCommand(progressSetCmd)
	rootCmd.AddCommand(progressCmd)
}

func containerID(account, container string) string {
	if progressContainerID != "" {
		return progressContainerID
	}
	return account + "/" + container
}

func runProgressGet(cmd *cobra.Command, args []string) error {
	s, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	rec, err := s.Reconcilers.ForContainer(args[0], args[1])
	if err != nil {
		return err
	}

	id := containerID(args[0], args[1])
	offset, err := rec.Progress(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	cmd.Printf("%s: %d\n", id, offset)
	return nil
}

func runProgressSet(cmd *cobra.Command, args []string) error {
	offset, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q: %w", args[2], err)
	}

	s, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	rec, err := s.Reconcilers.ForContainer(args[0], args[1])
	if err != nil {
		return err
	}

	id := containerID(args[0], args[1])
	if err := rec.SetProgress(cmd.Context(), id, offset); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	cmd.Printf("%s: %d\n", id, offset)
	return nil
}
