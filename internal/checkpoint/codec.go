package checkpoint

import (
	"bytes"
	"encoding/gob"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// encodeState serializes a state snapshot with encoding/gob.
func encodeState(s flow.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeState(data []byte) (flow.State, error) {
	var s flow.State
	if len(data) == 0 {
		return s, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return flow.State{}, err
	}
	return s, nil
}

func encodeCursor(c flow.Cursor) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCursor(data []byte) (flow.Cursor, error) {
	var c flow.Cursor
	if len(data) == 0 {
		return c, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return flow.Cursor{}, err
	}
	return c, nil
}
