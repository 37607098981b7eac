package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SenderID identifies a chat participant. Numeric IDs (Discord snowflakes) are
// persisted as JSON numbers and everything else as JSON strings, so stores written
// by older deployments round-trip without conversion.
type SenderID string

func (id SenderID) String() string {
	return string(id)
}

func (id SenderID) isNumeric() bool {
	s := string(id)
	if s == "" {
		return false
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(v, 10) == s
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(v, 10) == s
	}
	return false
}

func (id SenderID) MarshalJSON() ([]byte, error) {
	if id.isNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *SenderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty sender id")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding sender id: %w", err)
		}
		*id = SenderID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("sender id must be an integer or a string: %w", err)
	}
	candidate := SenderID(n.String())
	if !candidate.isNumeric() {
		return fmt.Errorf("sender id %s is not an integer", n.String())
	}
	*id = candidate
	return nil
}

func SenderIDFromInt(v int64) SenderID {
	return SenderID(strconv.FormatInt(v, 10))
}
