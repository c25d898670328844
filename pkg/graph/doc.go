// Package graph provides serialization types for commit history graphs.
//
// This package defines the canonical wire format for commitcanvas graph
// data, used for JSON files, API responses, caching, and storage documents.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory
// representation and external formats:
//
//   - [Graph], [Node], [Edge]: Serialization types (this package)
//   - pkg/core/commitgraph.Node: Internal graph representation
//   - pkg/gitlog.History: The loaded node arena
//
// Use [FromHistory]/[ToHistory] and the Marshal/Read/Write helpers to
// convert between them.
//
// # Wire format
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"hash": "a1b2", "score": 3, "relative": true}],
//	  "edges": [{"child": "a1b2", "parent": "c3d4"}]
//	}
//
// Node order is deterministic (descending score, then hash) so identical
// histories marshal to identical bytes, which the cache and store rely on
// for content hashing.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
