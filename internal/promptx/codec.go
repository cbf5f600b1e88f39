package promptx

import (
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// exampleWire is the serialized form of an Example: its field map plus
// the sorted list of keys marked as inputs.
type exampleWire struct {
	Fields map[string]any `msgpack:"fields"`
	Inputs []string       `msgpack:"inputs"`
}

// MarshalExample encodes e as msgpack.
func MarshalExample(e *Example) ([]byte, error) {
	wire := exampleWire{Fields: e.Fields()}
	for k := range e.inputs {
		wire.Inputs = append(wire.Inputs, k)
	}
	sort.Strings(wire.Inputs)
	return msgpack.Marshal(wire)
}

// UnmarshalExample decodes an Example previously written by
// MarshalExample.
func UnmarshalExample(data []byte) (*Example, error) {
	var wire exampleWire
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	e := NewExample()
	for k, v := range wire.Fields {
		e.WithField(k, v)
	}
	e.WithInputs(wire.Inputs...)
	return e, nil
}

// MarshalSignature encodes s as msgpack.
func MarshalSignature(s Signature) ([]byte, error) {
	return msgpack.Marshal(s)
}

// UnmarshalSignature decodes a Signature previously written by
// MarshalSignature.
func UnmarshalSignature(data []byte) (Signature, error) {
	var s Signature
	err := msgpack.Unmarshal(data, &s)
	return s, err
}
