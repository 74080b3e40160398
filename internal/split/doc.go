// Package split cuts media files into parts, either a fixed number of
// equal-duration segments or as many parts as needed to keep every part
// under an upload size ceiling.
//
// Size-bounded splitting extracts one part at a time with ffmpeg's `-fs`
// limit, probes what was produced and shrinks the limit whenever a part
// overshoots the ceiling, retrying the same start time. The cursor only
// moves once a part is confirmed under the ceiling, and consecutive parts
// overlap by a three second buffer so no frames are lost at boundaries.
//
// Both modes report cumulative progress through progress.State.Commit.
package split
