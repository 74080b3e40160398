// Package convert changes a file's format through an explicit fallback
// ladder of ffmpeg strategies.
//
// The ladder is picked from the target kind. Video walks
// Copy → FullTranscode → ReducedStream → AlternateCodec (WebM only); audio
// stops after ReducedStream; subtitles start at FullTranscode; images,
// documents (LibreOffice) and archives (7z) have a single rung. Custom
// codec settings skip the stream-copy rung.
//
// Only process failures advance the ladder. Cancellation ends the machine
// at once, and validation or configuration errors propagate unchanged.
// Container profiles add the flags every rung of a target needs
// (fast-start layout, even dimensions, a playable pixel format).
package convert
