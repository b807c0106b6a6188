package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks a persisted document that cannot be restored.
var ErrMalformed = errors.New("malformed snapshot")

// Encode renders the snapshot as the persisted JSON document. Timestamps are
// written as RFC 3339 strings and money as bare numbers.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s.withEmptySlices())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted document. Only the shape is checked: JSON types,
// timestamps, numbers and status values. Records the reducer accepts, such as
// an advance with a long description, decode unchanged. Missing collections
// decode as empty. Any failure is reported as ErrMalformed.
func Decode(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Snapshot{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var s Snapshot
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.checkSchema(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s.withEmptySlices(), nil
}
