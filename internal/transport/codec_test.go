package transport

import (
	"strings"
	"testing"

	"github.com/flowboard/flowboard/pkg/api"
)

func TestCodec_RoundTrip(t *testing.T) {
	snap := validSnapshot()
	snap.Nodes[0].Position = api.Position{X: 120, Y: -40.5}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if len(got.Nodes) != len(snap.Nodes) || len(got.Edges) != len(snap.Edges) {
		t.Fatalf("round trip changed sizes: %d/%d nodes, %d/%d edges",
			len(got.Nodes), len(snap.Nodes), len(got.Edges), len(snap.Edges))
	}
	if got.Nodes[0].Position != snap.Nodes[0].Position {
		t.Fatalf("position lost: got %v want %v", got.Nodes[0].Position, snap.Nodes[0].Position)
	}
	if got.Edges[0].Source != "n1" || got.Edges[0].Target != "n2" {
		t.Fatalf("edge endpoints lost: %v", got.Edges[0])
	}
}

func TestCodec_EmptyGraphEncodesArrays(t *testing.T) {
	data, err := EncodeSnapshot(api.GraphSnapshot{})
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Fatalf("empty graph encoded with nulls: %s", data)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Fatalf("expected empty graph, got %v", got)
	}
}

func TestCodec_NilPayloadDecodesEmpty(t *testing.T) {
	got, err := DecodeSnapshot(nil)
	if err != nil {
		t.Fatalf("DecodeSnapshot(nil) failed: %v", err)
	}
	if len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Fatalf("expected empty graph, got %v", got)
	}
}

func TestCodec_GarbageFails(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
