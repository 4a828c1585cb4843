package main

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/schema"
)

// entry is one row of the declaration listing.
type entry struct {
	kind      string
	id        string
	signature string
	binding   string
	detail    string
}

// entries flattens set into listing rows in the set's stable order.
func entries(set *export.Set) []entry {
	all := set.All()
	out := make([]entry, 0, len(all))
	for _, e := range all {
		out = append(out, describe(e))
	}
	return out
}

func describe(e export.Export) entry {
	row := entry{
		kind:   e.ExportKind().String(),
		id:     e.Identifier(),
		detail: detail(e),
	}
	switch e := e.(type) {
	case *export.Named:
		row.signature = e.Style.String() + " " + e.Schema.Kind().String()
		row.binding = e.IndexFn
	case *export.Fn:
		row.signature = signature(e.Name, e.Receiver, e.Inputs, e.Output)
		row.binding = e.Binding
	case *export.Method:
		row.signature = signature(e.Name, e.Receiver, e.Inputs, e.Output)
		row.binding = e.Binding
	}
	return row
}

// signature renders a callable as name(self, a: T) -> R.
func signature(name string, recv *export.ReceiverStyle, inputs []export.Param, output schema.Schema) string {
	var params []string
	if recv != nil {
		switch *recv {
		case export.ReceiverRef:
			params = append(params, "&self")
		case export.ReceiverRefMut:
			params = append(params, "&mut self")
		default:
			params = append(params, "self")
		}
	}
	for _, p := range inputs {
		if p.Name == "" {
			params = append(params, p.Schema.String())
			continue
		}
		params = append(params, p.Name+": "+p.Schema.String())
	}
	sig := name + "(" + strings.Join(params, ", ") + ")"
	if output != nil && output.Kind() != schema.KindUnit {
		sig += " -> " + output.String()
	}
	return sig
}

// detail is the indented declaration JSON, or the error text when the export
// cannot be encoded.
func detail(e export.Export) string {
	raw, err := export.Marshal(e)
	if err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// matches reports whether row contains every whitespace-separated term of
// filter, ignoring case.
func (e entry) matches(filter string) bool {
	hay := strings.ToLower(e.kind + " " + e.id + " " + e.signature)
	for _, term := range strings.Fields(strings.ToLower(filter)) {
		if !strings.Contains(hay, term) {
			return false
		}
	}
	return true
}
