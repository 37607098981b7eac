package allowlist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// decode parses the persisted JSON array. A blank record is an empty list.
func decode(data []byte) ([]model.SenderID, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.SenderID{}, nil
	}

	var senders []model.SenderID
	if err := json.Unmarshal(data, &senders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if senders == nil {
		return nil, fmt.Errorf("%w: record is null", ErrMalformed)
	}
	return senders, nil
}

func encode(senders []model.SenderID) ([]byte, error) {
	if senders == nil {
		senders = []model.SenderID{}
	}
	data, err := json.Marshal(senders)
	if err != nil {
		return nil, fmt.Errorf("encoding allow-list: %w", err)
	}
	return data, nil
}
