package api

import (
	"github.com/ohler55/ojg/jp"
)

// The API documents are dynamic JSON parsed into generic Go values; these
// helpers pull typed fields out of them via JSONPath selectors.

// String returns the first string matched by the path. ok is false when the
// path matches nothing, or only non-string values (including JSON null).
func String(doc any, path string) (string, bool) {
	x, err := jp.ParseString(path)
	if err != nil {
		return "", false
	}
	for _, v := range x.Get(doc) {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Int returns the first numeric value matched by the path as an int64.
// ojg parses integral JSON numbers as int64, but documents built through
// encoding/json carry float64, so both are accepted.
func Int(doc any, path string) (int64, bool) {
	x, err := jp.ParseString(path)
	if err != nil {
		return 0, false
	}
	for _, v := range x.Get(doc) {
		switch n := v.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}

// Bool returns the first boolean matched by the path, false when absent.
func Bool(doc any, path string) bool {
	x, err := jp.ParseString(path)
	if err != nil {
		return false
	}
	for _, v := range x.Get(doc) {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// List returns every value matched by the path, in document order.
func List(doc any, path string) []any {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	return x.Get(doc)
}
