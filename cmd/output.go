package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"guardly-cli/internal/forms"
)

// printStructured writes v as JSON or YAML when one was requested and reports whether it did.
func printStructured(v any) bool {
	switch {
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must(enc.Encode(v), "encoding JSON")
	case yamlOutput:
		out, err := toYAML(v)
		must(err, "encoding YAML")
		_, _ = os.Stdout.Write(out)
	default:
		return false
	}
	return true
}

// toYAML goes through the JSON encoding so wire names and custom marshalers are kept.
func toYAML(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func newTable(headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(dashes, "\t"))
	return w
}

func printRows(rows []forms.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", r.Label, r.Value)
	}
	w.Flush()
}

// report prints a submission outcome and exits non-zero when it failed.
func report(out forms.Outcome) {
	if out.OK {
		fmt.Println(out.Message)
		return
	}
	fmt.Fprintln(os.Stderr, out.Message)
	names := make([]string, 0, len(out.Fields))
	for name := range out.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", name, out.Fields[name])
	}
	if out.Fields == nil && out.Err != nil {
		fmt.Fprintf(os.Stderr, "  %v\n", out.Err)
	}
	os.Exit(1)
}
