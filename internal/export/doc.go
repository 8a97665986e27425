// Package export renders stored goals for download. JSON and YAML carry the
// full goal objects; CSV and Markdown flatten each goal into one row with a
// column per step.
package export
