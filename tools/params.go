package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// String returns params[key] as a string, or "" when absent or nil.
func String(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns params[key] as a bool. Strings are parsed with strconv.
func Bool(params map[string]any, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Int returns params[key] as an int. JSON numbers arrive as float64 or
// json.Number depending on the decoder.
func Int(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
