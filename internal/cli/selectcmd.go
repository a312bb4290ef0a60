package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/weft/internal/input"
	"github.com/loomkit/weft/internal/output"
	"github.com/loomkit/weft/internal/path"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Method     string
	Namespaces []string
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <path> <document>",
		Short: "Apply a path expression to a document",
		Long: `Tokenize an XML document, apply a path expression and print the
matching substream. Useful for debugging path expressions against
real documents.

Example:
  weft select "//item/title" feed.xml
  weft select "a:entry" feed.xml --ns a=http://www.w3.org/2005/Atom`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Method, "method", "xml", "serialization method (xml|xhtml|html|text)")
	cmd.Flags().StringArrayVar(&opts.Namespaces, "ns", nil, "namespace binding prefix=uri (repeatable)")

	return cmd
}

func runSelect(opts *SelectOptions, expr, file string, cmd *cobra.Command) error {
	method, err := output.ParseMethod(opts.Method)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid method", err)
	}

	namespaces, err := parseNamespaces(opts.Namespaces)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid namespace binding", err)
	}

	p, err := path.Compile(expr)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid path expression", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open document", err)
	}
	defer f.Close()

	slog.Debug("selecting from document", "path", expr, "file", file)

	selected := p.Select(input.Tokenize(f, file), namespaces, nil)
	if err := output.Serialize(cmd.OutOrStdout(), selected, method); err != nil {
		return WrapExitError(ExitFailure, "select failed", err)
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), "\n"); err != nil {
		return WrapExitError(ExitFailure, "select failed", err)
	}
	return nil
}

func parseNamespaces(bindings []string) (path.Namespaces, error) {
	if len(bindings) == 0 {
		return nil, nil
	}
	namespaces := make(path.Namespaces, len(bindings))
	for _, binding := range bindings {
		prefix, uri, ok := strings.Cut(binding, "=")
		if !ok || prefix == "" || uri == "" {
			return nil, fmt.Errorf("want prefix=uri, got %q", binding)
		}
		namespaces[prefix] = uri
	}
	return namespaces, nil
}
