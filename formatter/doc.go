// Package formatter serializes responses in the shapes clients ask for:
// readable JSON, compact JSON for the MicroPython display client, and a
// plain-text rendering for terminals. Compact and standard JSON carry
// identical values and differ only in whitespace.
package formatter
