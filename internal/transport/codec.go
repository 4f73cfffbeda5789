package transport

import (
	"encoding/json"
	"fmt"

	"github.com/flowboard/flowboard/pkg/api"
)

// EncodeSnapshot serializes a graph snapshot to its JSON wire form. Node and
// edge order is preserved; an empty graph encodes to a document with empty
// arrays rather than nulls so every stored payload decodes the same way.
func EncodeSnapshot(snap api.GraphSnapshot) ([]byte, error) {
	if snap.Nodes == nil {
		snap.Nodes = []api.Node{}
	}
	if snap.Edges == nil {
		snap.Edges = []api.Edge{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses the JSON wire form back into a snapshot. A nil or
// empty payload decodes to an empty graph.
func DecodeSnapshot(data []byte) (api.GraphSnapshot, error) {
	if len(data) == 0 {
		return api.GraphSnapshot{}, nil
	}
	var snap api.GraphSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return api.GraphSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
