package models

import (
	"encoding/json"
	"fmt"
)

// TopEntry is one (key, count) pair from a top-K analytics query.
// It serializes as a two-element JSON array: ["key", count].
type TopEntry struct {
	Key   string
	Count int64
}

// MarshalJSON renders the entry as ["key", count].
func (e TopEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Count})
}

// UnmarshalJSON parses the ["key", count] pair form.
func (e *TopEntry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("top entry must be a two-element array: %w", err)
	}
	if err := json.Unmarshal(pair[0], &e.Key); err != nil {
		return fmt.Errorf("top entry key: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Count); err != nil {
		return fmt.Errorf("top entry count: %w", err)
	}
	return nil
}

// TopPage is the response body of a top-K query.
type TopPage struct {
	Items []TopEntry `json:"items"`
}
