// Package tables provides table detection on PDF pages.
//
// # Detectors
//
// Table detection is performed by types implementing the [Detector] interface.
// The package provides:
//
//   - [LatticeDetector] - uses the ruling lines drawn on the page ("lattice")
//
// Detectors are registered globally and can be retrieved by mode name:
//
//	detector := tables.GetDetector("lattice")
//	found, err := detector.Detect(page)
//
// # Lattice Detection
//
// Lattice detection assumes every table is delineated by visible lines:
//
//  1. Ruling lines shorter than MinLineLength are discarded
//  2. Lines that touch each other are clustered; each cluster is one table
//  3. Aligned lines in a cluster are grouped into row and column boundaries
//  4. Glyphs are assigned to cells by their centre point
//  5. Cells whose separating line is missing are merged into one spanning cell
//
// Spanning cells keep their text in the top-left position; the positions they
// cover are left empty.
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.MinRows = 1
//	detector.Configure(config)
package tables
