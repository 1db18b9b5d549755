// Package jsonlog renders structured log lines, such as those zerolog
// writes, as readable "key: value" pairs.
package jsonlog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// priority keys come first, in this order. Other keys keep the order the
// logger wrote them in.
var priority = []string{"level", "lvl", "severity", "time", "ts", "timestamp", "@timestamp", "msg", "message"}

type field struct {
	key   string
	value gjson.Result
}

// Format renders line as key: value pairs when it holds a non-empty JSON
// object, possibly after a prefix such as "file_test.go:12: ", which is
// kept. ok is false for any other line.
func Format(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "\xef\xbb\xbf")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return "", false
	}
	raw := trimmed[start : end+1]
	if !gjson.Valid(raw) {
		return "", false
	}
	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return "", false
	}

	var fields []field
	obj.ForEach(func(k, v gjson.Result) bool {
		fields = append(fields, field{key: k.String(), value: v})
		return true
	})
	if len(fields) == 0 {
		return "", false
	}
	slices.SortStableFunc(fields, func(a, b field) int {
		return cmp.Compare(rank(a.key), rank(b.key))
	})

	var sb strings.Builder
	sb.WriteString(trimmed[:start])
	for i, f := range fields {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(f.key)
		sb.WriteString(": ")
		sb.WriteString(value(f.value))
	}
	return sb.String(), true
}

func rank(key string) int {
	if i := slices.Index(priority, strings.ToLower(key)); i >= 0 {
		return i
	}
	return len(priority)
}

// value renders v YAML style: plain strings bare, "~" for an empty string,
// whole numbers without a fraction and nested values as compact JSON.
func value(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		switch {
		case v.Str == "":
			return "~"
		case strings.ContainsAny(v.Str, "\n\r\t"):
			return strconv.Quote(v.Str)
		}
		return v.Str
	case gjson.Number:
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case gjson.JSON:
		return v.Get("@ugly").Raw
	default:
		return v.Raw
	}
}
