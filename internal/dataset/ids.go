package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MessageID is a dataset-internal message id. NoMessage marks a side of an
// analysis range that contributes no messages.
type MessageID int64

// NoMessage is the "none" id. It is encoded as JSON null.
const NoMessage MessageID = -1

// Valid reports whether the id refers to a message
func (id MessageID) Valid() bool {
	return id != NoMessage
}

// String formats the id, using "none" for NoMessage
func (id MessageID) String() string {
	if !id.Valid() {
		return "none"
	}
	return formatInt(int64(id))
}

// MarshalJSON implements json.Marshaler
func (id MessageID) MarshalJSON() ([]byte, error) {
	if !id.Valid() {
		return []byte("null"), nil
	}
	return []byte(formatInt(int64(id))), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *MessageID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*id = NoMessage
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*id = MessageID(v)
	return nil
}

// MarshalYAML renders NoMessage as "none". YAML nulls never reach custom
// unmarshalers, so null cannot round-trip.
func (id MessageID) MarshalYAML() (any, error) {
	if !id.Valid() {
		return "none", nil
	}
	return int64(id), nil
}

// UnmarshalYAML accepts an integer or "none"
func (id *MessageID) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "none" {
		*id = NoMessage
		return nil
	}
	v, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", value.Value, err)
	}
	*id = MessageID(v)
	return nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
