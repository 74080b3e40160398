// Package command resolves placeholder-bearing ffmpeg argument templates
// into concrete argument vectors and the list of files the run must produce.
//
// Placeholders share a configurable prefix (default "mltb"). After `-i` the
// prefix alone names the primary input and `<prefix>.<kind>` selects an
// auxiliary input of that media kind. Anywhere else a prefixed token is an
// output: the prefix is replaced with the base name of the input feeding it.
// Outputs carrying a printf-style `%d` or `%0Nd` verb expand to one file per
// `-map` directive of their segment.
//
// Resolution is deterministic: the same request always yields the same
// Resolved value. Kind detection is injected so tests never touch the disk.
package command
