package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/commitcanvas/pkg/gitlog"
)

// MarshalGraph converts a loaded history to JSON bytes.
// Nodes are ordered deterministically (descending score, then hash).
func MarshalGraph(hist *gitlog.History) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(hist, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// WriteGraphFile writes a history to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(hist *gitlog.History, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(hist, f)
}

// WriteGraph writes a history as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(hist *gitlog.History, w io.Writer) error {
	return writeGraphTo(hist, w)
}

// ReadGraphFile reads a JSON file and returns the rebuilt history.
// Returns validation errors for malformed graphs or invariant violations.
func ReadGraphFile(path string) (*gitlog.History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader into a history.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (*gitlog.History, error) {
	return readGraphFrom(r)
}

func writeGraphTo(hist *gitlog.History, w io.Writer) error {
	out := FromHistory(hist)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*gitlog.History, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToHistory(data)
}
