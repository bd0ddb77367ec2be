package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// decodeItems reads an items field that is either a JSON value or a JSON
// document encoded as a string, as form-era clients send it.
func decodeItems(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrMissingArgs
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ErrBadRequest.With(err.Error())
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrBadRequest.With("items: " + err.Error())
	}
	return nil
}

// idList reads an items field holding comma-separated ids, either as a
// string or as a JSON array of ids.
func idList(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrMissingArgs
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", ErrBadRequest.With(err.Error())
		}
		return s, nil
	}
	var nums []json.Number
	if err := json.Unmarshal(raw, &nums); err != nil {
		return "", ErrBadRequest.With("items: " + err.Error())
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = n.String()
	}
	return strings.Join(parts, ","), nil
}
