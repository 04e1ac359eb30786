// Package output persists split results: one pretty JSON document per array
// element and a plain line list for the manifest.
package output
