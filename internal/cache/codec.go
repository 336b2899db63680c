package cache

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/alfredjeanlab/convoy/internal/graph"
)

// Graph blobs compress very well (JSON with long repeated keys), and a
// snapshot is written once per pass, so a single shared codec pair is
// plenty. EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("cache: zstd encoder: %v", err))
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("cache: zstd decoder: %v", err))
	}
}

// EncodeGraph renders a graph to its compressed storage form.
func EncodeGraph(g *graph.FederatedGraph) ([]byte, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// DecodeGraph rebuilds a graph from its compressed storage form.
func DecodeGraph(blob []byte) (*graph.FederatedGraph, error) {
	raw, err := zstdDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress graph: %w", err)
	}
	var g graph.FederatedGraph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return &g, nil
}
