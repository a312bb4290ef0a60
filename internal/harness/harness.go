package harness

import (
	"bytes"
	"os"

	"github.com/loomkit/weft/internal/output"
	"github.com/loomkit/weft/internal/template"
)

// Result holds one rendered scenario.
type Result struct {
	Output string
	Method output.Method
}

// Run parses the scenario's template, renders it with the scenario's
// data and serializes the stream with the scenario's method.
func Run(scenario *Scenario) (*Result, error) {
	source, err := os.ReadFile(scenario.Template)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.Parse(bytes.NewReader(source), scenario.Template)
	if err != nil {
		return nil, err
	}

	method, err := output.ParseMethod(scenario.Method)
	if err != nil {
		return nil, err
	}
	ctx := template.NewContext(scenario.Data)
	rendered, err := output.String(tmpl.Generate(ctx), method)
	if err != nil {
		return nil, err
	}
	return &Result{Output: rendered, Method: method}, nil
}
