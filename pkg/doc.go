// Package pkg provides the core libraries for Deckpack placement planning.
//
// # Overview
//
// Deckpack packs heterogeneous ship blocks, described as 2.5-D voxel
// footprints, onto the rectangular deck of a self-propelled floating dock.
// The pkg directory is organized into four main areas:
//
//  1. [core] - Domain logic (block geometry, deck state, the greedy packer)
//  2. [voxel]/[config] - Input decoding (voxel records, deck configuration)
//  3. [plan]/[render] - Output (plan serialization, SVG rendering)
//  4. [pipeline] - Orchestration (load → place → render) with caching
//
// # Architecture
//
// The typical data flow through Deckpack:
//
//	Deck configuration + voxel records
//	         ↓
//	pipeline.Runner.Load
//	         ↓
//	place.PlaceAll on an area.Area        (core packing loop)
//	         ↓
//	plan.Plan document
//	         ↓
//	render.SVG / JSON artifacts
//
// The core packages are dependency-free and deterministic; caching and
// logging live at the pipeline boundary, and the packing loop reports its
// progress through the observability hooks.
package pkg
