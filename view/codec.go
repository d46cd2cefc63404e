package view

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotArray = errors.New("stored views are not a JSON array")

// encodeViews serializes the whole collection as one JSON array.
func encodeViews(views []SavedView) ([]byte, error) {
	if views == nil {
		views = []SavedView{}
	}
	data, err := json.Marshal(views)
	if err != nil {
		return nil, fmt.Errorf("encode views: %w", err)
	}
	return data, nil
}

// decodeViews parses a stored collection. Absent or null content is an empty
// collection. Anything other than an array is rejected so the caller can fall
// back to an empty collection.
func decodeViews(data []byte) ([]SavedView, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []SavedView{}, nil
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("decode views: invalid JSON")
		}
		return nil, errNotArray
	}
	var views []SavedView
	if err := json.Unmarshal(trimmed, &views); err != nil {
		return nil, fmt.Errorf("decode views: %w", err)
	}
	if views == nil {
		views = []SavedView{}
	}
	return views, nil
}
