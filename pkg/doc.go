// Package pkg provides the core libraries for commitcanvas history
// visualization.
//
// # Overview
//
// Commitcanvas turns a streamed git commit log into a scored, layered
// history graph and renders it. The pkg directory is organized into:
//
//  1. [core] - Domain logic (the concurrent commit graph and its invariants)
//  2. [gitlog] - The streaming log reader and graph loader
//  3. [layout], [render] - Row/lane layout and DOT/SVG rendering
//  4. [graph] - Serialization types for the wire format
//  5. [cache], [store], [config], [errors] - Infrastructure
//  6. [pipeline] - Orchestration (load → layout → render)
//
// # Architecture
//
// The typical data flow:
//
//	git log stream
//	         ↓
//	gitlog.Loader  →  commitgraph nodes (scores, relative flags, segments)
//	         ↓
//	layout.Compute →  rows, lanes, drawable edges
//	         ↓
//	render/nodelink → DOT / SVG / PNG
//
// The HTTP API (internal/server) and the CLI (internal/cli) both drive the
// same pipeline.Runner, with pkg/cache and pkg/store supplying stage caching
// and persistence.
package pkg
