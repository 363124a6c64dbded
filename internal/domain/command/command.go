// Package command implements the small JSON control-message codec (C2)
// exchanged between the server and a UI client.
package command

import "encoding/json"

// Kind enumerates the control message kinds.
type Kind string

const (
	Start   Kind = "Start"
	Status  Kind = "Status"
	Step    Kind = "Step"
	Options Kind = "Options"
)

// Generic is the wire shape of every control message: {"command": ..., "value": ...}.
type Generic struct {
	Command Kind   `json:"command"`
	Value   string `json:"value"`
}

// Encode serializes a Generic command to its JSON text frame.
func Encode(kind Kind, value string) ([]byte, error) {
	return json.Marshal(Generic{Command: kind, Value: value})
}

// Decode parses a JSON text frame into a Generic command.
func Decode(data []byte) (Generic, error) {
	var g Generic
	if err := json.Unmarshal(data, &g); err != nil {
		return Generic{}, err
	}
	return g, nil
}

// Start is the nested payload of a non-empty Start command value.
type Start struct {
	VP      string `json:"vp"`
	Proj    string `json:"proj"`
	Args    string `json:"args"`
	GDBArch string `json:"gdb_arch"`
}

// DecodeStart parses the nested StartCommand payload carried as the `value`
// string of a Generic{Command: Start} message.
func DecodeStart(value string) (Start, error) {
	var s Start
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return Start{}, err
	}
	return s, nil
}
