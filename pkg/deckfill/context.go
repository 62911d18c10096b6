package deckfill

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Context holds the key-value data for a render pass. Keys are the trimmed
// placeholder names; values can be strings, numbers, booleans, nested maps,
// or any other type convertible to a string.
//
// A Context is read-only for the duration of a render pass.
type Context map[string]interface{}

// Lookup resolves a placeholder key to its rendered string value.
// Missing keys resolve to the empty string, never an error.
//
// A key that is absent from the map but contains dots is resolved by walking
// nested maps segment by segment, so {{report.title}} finds
// ctx["report"]["title"]. A flat key always wins over a dotted walk.
func (c Context) Lookup(key string) string {
	value, ok := c.resolve(key)
	if !ok {
		return ""
	}
	return FormatValue(value)
}

func (c Context) resolve(key string) (interface{}, bool) {
	if value, ok := c[key]; ok {
		return value, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var current interface{} = map[string]interface{}(c)
	for _, segment := range strings.Split(key, ".") {
		m, ok := asStringMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asStringMap(value interface{}) (map[string]interface{}, bool) {
	switch m := value.(type) {
	case map[string]interface{}:
		return m, true
	case Context:
		return m, true
	default:
		return nil, false
	}
}

// FormatValue converts a context value to its rendered string form.
// Floats keep a trailing ".0" when they have no fractional digits, so that
// 980.0 renders as "980.0" rather than "980".
func FormatValue(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	// Integral floats get an explicit decimal part so numeric values keep
	// their float identity in the output.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ContextFromJSON builds a Context from a JSON object. Nested objects become
// nested maps (reachable through dotted keys), arrays become slices, and
// numbers become int64 when the source has no decimal or exponent part,
// float64 otherwise.
func ContextFromJSON(data []byte) (Context, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("context is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("context must be a JSON object, got %s", root.Type)
	}

	ctx := make(Context)
	root.ForEach(func(key, value gjson.Result) bool {
		ctx[key.String()] = jsonValue(value)
		return true
	})
	return ctx, nil
}

// jsonValue converts a gjson result into the plain Go value the renderer
// understands.
func jsonValue(result gjson.Result) interface{} {
	switch {
	case result.IsObject():
		m := make(map[string]interface{})
		result.ForEach(func(key, value gjson.Result) bool {
			m[key.String()] = jsonValue(value)
			return true
		})
		return m
	case result.IsArray():
		values := result.Array()
		out := make([]interface{}, 0, len(values))
		for _, v := range values {
			out = append(out, jsonValue(v))
		}
		return out
	case result.Type == gjson.Number:
		// Keep integers integral: "980" renders as "980", "980.0" as "980.0".
		if !strings.ContainsAny(result.Raw, ".eE") {
			return result.Int()
		}
		return result.Float()
	case result.Type == gjson.String:
		return result.String()
	case result.Type == gjson.True:
		return true
	case result.Type == gjson.False:
		return false
	default:
		return nil
	}
}
