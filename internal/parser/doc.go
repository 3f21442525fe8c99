// Package parser turns feed post titles and bodies into structured weekend
// data: the event and round a title names, its video quality tier, the
// sessions listed in the body's contents section and the magnet download
// reference.
//
// Bodies may arrive as rendered HTML (possibly entity-escaped) or as raw
// markdown. Markdown is rendered with goldmark before structural parsing so
// both shapes share one path. Every function is pure and deterministic.
package parser
