package models

import "fmt"

// scanString reads a text column into a string regardless of how the driver
// hands it over.
func scanString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into string enum", value)
	}
}
