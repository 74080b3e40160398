// Package preview produces short sample clips and still screenshots from a
// video so a recipient can judge it before fetching the full file.
package preview
