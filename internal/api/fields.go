package api

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadFieldsArg returns the raw JSON of a --fields argument. A value
// starting with @ names a file to read it from.
func ReadFieldsArg(arg string) (json.RawMessage, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fields file: %w", err)
		}
		data = b
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("fields must be valid JSON")
	}
	return json.RawMessage(data), nil
}
