// Package harness runs scenario-driven conformance tests: each YAML
// scenario names a template file, context data and a serialization
// method, and the rendered output is compared against a golden file.
//
// Golden files live in testdata/golden and are regenerated with:
//
//	go test ./internal/harness -update
package harness
