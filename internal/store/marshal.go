package store

import (
	"encoding/json"
	"fmt"
)

// marshalIDs converts an identifier list to a JSON array TEXT column.
// nil marshals to "[]" so the column never holds SQL NULL.
func marshalIDs(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal id list: %w", err)
	}
	return string(data), nil
}

// unmarshalIDs parses a JSON array TEXT column into an identifier list.
func unmarshalIDs(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal id list: %w", err)
	}
	return ids, nil
}

// normalizeFields ensures the fields column is valid JSON TEXT.
// Empty payloads are stored as "{}".
func normalizeFields(fields []byte) string {
	if len(fields) == 0 {
		return "{}"
	}
	return string(fields)
}
