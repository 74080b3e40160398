// Package media classifies files into the closed set of media kinds the
// pipeline understands.
//
// Kind replaces free-form "video"/"audio"/... strings so the resolver and the
// conversion ladders can switch exhaustively. Detection trusts well-known
// extensions first and falls back to content sniffing for everything else.
package media
