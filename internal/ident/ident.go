// Package ident canonicalizes the backend's heterogeneous identifier
// representations into a single lowercase hex string.
//
// The backend prints ObjectIDs in several shapes depending on the code path
// that produced them: a plain hex string, a decimal string, a bracketed byte
// array ("[1, 2, 255]"), or a JSON object wrapping a raw byte buffer. Model
// tool arguments only ever carry the printed form, so Normalize reverses
// whichever form shows up.
package ident

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize converts any supported identifier representation into a lowercase
// hex string. It is total: unsupported inputs are stringified verbatim.
func Normalize(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(id)
	case json.Number:
		return normalizeString(id.String())
	case int:
		return fmt.Sprintf("%02x", id)
	case int32:
		return fmt.Sprintf("%02x", id)
	case int64:
		return fmt.Sprintf("%02x", id)
	case float64:
		// JSON-decoded numbers arrive as float64.
		if id == float64(int64(id)) {
			return fmt.Sprintf("%02x", int64(id))
		}
		return fmt.Sprint(id)
	case []byte:
		return bytesToHex(id)
	case []int:
		var b strings.Builder
		for _, n := range id {
			fmt.Fprintf(&b, "%02x", n)
		}
		return b.String()
	case []any:
		return normalizeSlice(id)
	case map[string]any:
		return normalizeBufferObject(id)
	default:
		return fmt.Sprint(v)
	}
}

func normalizeSlice(items []any) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(Normalize(item))
	}
	return b.String()
}

func normalizeString(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		return normalizeBracketed(trimmed)
	}
	if isDigits(trimmed) {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil {
			return fmt.Sprintf("%02x", n)
		}
	}
	return s
}

// normalizeBracketed handles identifiers that arrive as the printed form of a
// byte array, e.g. "[103, 12, 255]".
func normalizeBracketed(s string) string {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return ""
	}

	tokens := strings.Split(inner, ",")
	ints := make([]int64, 0, len(tokens))
	allInts := true
	for _, tok := range tokens {
		n, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			allInts = false
			break
		}
		ints = append(ints, n)
	}

	if allInts {
		var b strings.Builder
		for _, n := range ints {
			fmt.Fprintf(&b, "%02x", n)
		}
		return b.String()
	}

	// Mixed tokens: normalize each one individually.
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(normalizeString(strings.TrimSpace(tok)))
	}
	return b.String()
}

// normalizeBufferObject handles JSON-decoded buffer wrappers, either
// {"buffer": {"data": [...]}} or {"data": [...]}.
func normalizeBufferObject(obj map[string]any) string {
	if buf, ok := obj["buffer"].(map[string]any); ok {
		if data, ok := buf["data"].([]any); ok {
			return normalizeSlice(data)
		}
	}
	if data, ok := obj["data"].([]any); ok {
		return normalizeSlice(data)
	}
	return fmt.Sprint(obj)
}

func bytesToHex(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
