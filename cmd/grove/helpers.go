// Shared helpers for grove CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grovedb/grove/pkg/types"
)

// parseAttrs turns key=value arguments into an attribute map. Values that
// read as numbers or booleans are stored typed, so ordering attributes
// written from the CLI compare numerically.
func parseAttrs(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	attrs := make(map[string]any, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("attribute %q is not key=value", arg)
		}
		attrs[key] = parseValue(val)
	}
	return attrs, nil
}

func parseValue(val string) any {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return val
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		sysErr("encoding JSON", err)
	}
	fmt.Println(string(out))
}

// attrsString renders attributes as space-separated key=value pairs in
// key order.
func attrsString(n types.Node) string {
	if len(n.Attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, n.Attrs[k])
	}
	return strings.Join(parts, " ")
}
