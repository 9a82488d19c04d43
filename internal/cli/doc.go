// Package cli implements the object-mapper command line: mapping payload
// files with YAML definitions, checking definition files and printing
// inverse mappings.
//
// Definitions used from the command line have no Go types behind their
// shapes; every shape a file names is backed by a dictionary, so mapped
// objects print as plain JSON or YAML documents.
package cli
