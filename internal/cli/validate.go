package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/weft/internal/template"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <template>...",
		Short: "Parse templates without rendering",
		Long: `Parse the given template files and report syntax and directive
errors with their source positions. Nothing is rendered.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	failed := 0
	for _, file := range files {
		slog.Debug("validating template", "file", file)
		if err := validateFile(file); err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
	}
	if failed > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d templates invalid", failed, len(files)))
	}
	return nil
}

func validateFile(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = template.Parse(f, file)
	return err
}
