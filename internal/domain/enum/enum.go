package enum

import (
	"encoding/json"
	"fmt"
)

// ValueError reports a JSON value outside an enum's closed set. Value is
// the raw JSON text.
type ValueError struct {
	Name  string
	Value string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s %s", e.Name, e.Value)
}

// unmarshalClosed decodes a JSON string into one of the allowed values.
// Anything outside the set is rejected instead of being silently ignored.
func unmarshalClosed[T ~string](data []byte, allowed []T, name string) (T, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return "", &ValueError{Name: name, Value: string(data)}
	}
	for _, v := range allowed {
		if string(v) == str {
			return v, nil
		}
	}
	return "", &ValueError{Name: name, Value: string(data)}
}

func contains[T ~string](allowed []T, v T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
