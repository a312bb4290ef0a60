package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loomkit/weft/internal/loader"
	"github.com/loomkit/weft/internal/output"
	"github.com/loomkit/weft/internal/template"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Data   string
	Method string
	Output string
	Paths  []string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template with context data",
		Long: `Render a template and write the serialized output.

The template argument is either a file path or a name resolved against
the --path search directories. Context data comes from a YAML file.

Example:
  weft render page.html --data context.yaml --method xhtml
  weft render layouts/base.html --path ./templates -o page.html`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "YAML file with context data")
	cmd.Flags().StringVar(&opts.Method, "method", "xml", "serialization method (xml|xhtml|html|text)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringArrayVar(&opts.Paths, "path", nil, "template search directory (repeatable)")

	return cmd
}

func runRender(opts *RenderOptions, name string, cmd *cobra.Command) error {
	method, err := output.ParseMethod(opts.Method)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid method", err)
	}

	data, err := loadData(opts.Data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load context data", err)
	}

	tmpl, err := loadTemplate(name, opts.Paths)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			return WrapExitError(ExitCommandError, "template not found", err)
		}
		return WrapExitError(ExitFailure, "failed to parse template", err)
	}

	renderID := uuid.Must(uuid.NewV7()).String()
	slog.Debug("rendering template",
		"template", tmpl.Name(), "method", method, "render_id", renderID)

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	stream := tmpl.Generate(template.NewContext(data))
	if err := output.Serialize(out, stream, method); err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}

	slog.Debug("render complete", "render_id", renderID)
	return nil
}

// loadTemplate resolves the template argument: an existing file path is
// loaded from its own directory, anything else is resolved against the
// search directories.
func loadTemplate(name string, paths []string) (*template.Template, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		dirs := append([]string{filepath.Dir(name)}, paths...)
		return loader.New(dirs).Load(filepath.Base(name))
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return loader.New(paths).Load(name)
}

func loadData(file string) (map[string]any, error) {
	if file == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return data, nil
}
