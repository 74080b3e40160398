package convert

import (
	"strconv"
	"strings"
)

// evenDimensions rounds odd widths and heights down so yuv420p encoders
// accept the frame.
const evenDimensions = "scale=trunc(iw/2)*2:trunc(ih/2)*2"

// Profile describes how a target container is produced.
type Profile struct {
	Container     string
	VideoCodec    string
	VideoArgs     []string
	AudioCodec    string
	SubtitleCodec string
	// AllRungs apply to every rung, including stream copy.
	AllRungs []string
	// TranscodeArgs apply to every re-encoding rung.
	TranscodeArgs []string
	// Alternate, when set, adds the AlternateCodec rung.
	Alternate *Alternate
}

// Alternate is a second codec family tried after the reduced-stream rung.
// It uses explicit bitrates; CRF is never set.
type Alternate struct {
	VideoCodec   string
	VideoBitrate string
	AudioCodec   string
	AudioBitrate string
}

var mp4Family = Profile{
	VideoCodec:    "libx264",
	AudioCodec:    "aac",
	SubtitleCodec: "mov_text",
	AllRungs:      []string{"-movflags", "+faststart"},
	TranscodeArgs: []string{"-pix_fmt", "yuv420p", "-vf", evenDimensions},
}

var videoProfiles = map[string]Profile{
	"mp4": withContainer(mp4Family, "mp4"),
	"m4v": withContainer(mp4Family, "m4v"),
	"mov": withContainer(mp4Family, "mov"),
	"mkv": {
		Container:     "mkv",
		VideoCodec:    "libx264",
		AudioCodec:    "aac",
		SubtitleCodec: "ass",
	},
	"webm": {
		Container:     "webm",
		VideoCodec:    "libvpx-vp9",
		VideoArgs:     []string{"-crf", "30", "-b:v", "0"},
		AudioCodec:    "libopus",
		SubtitleCodec: "webvtt",
		TranscodeArgs: []string{"-pix_fmt", "yuv420p"},
		Alternate: &Alternate{
			VideoCodec:   "libvpx",
			VideoBitrate: "1M",
			AudioCodec:   "libvorbis",
			AudioBitrate: "128k",
		},
	},
	"avi": {
		Container:     "avi",
		VideoCodec:    "libx264",
		AudioCodec:    "libmp3lame",
		TranscodeArgs: []string{"-pix_fmt", "yuv420p"},
	},
}

var audioCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"m4a":  "aac",
	"aac":  "aac",
	"flac": "flac",
	"opus": "libopus",
	"ogg":  "libvorbis",
	"wav":  "pcm_s16le",
	"aiff": "pcm_s16be",
	"ac3":  "ac3",
	"eac3": "eac3",
	"alac": "alac",
	"wma":  "wmav2",
}

var subtitleCodecs = map[string]string{
	"srt": "srt",
	"ass": "ass",
	"ssa": "ssa",
	"vtt": "webvtt",
}

func withContainer(p Profile, container string) Profile {
	p.Container = container
	return p
}

// VideoProfile returns the profile for a video container. Unknown containers
// get an H.264/AAC profile without container-specific flags.
func VideoProfile(target string) Profile {
	target = normalizeTarget(target)
	if p, ok := videoProfiles[target]; ok {
		return p
	}
	return Profile{Container: target, VideoCodec: "libx264", AudioCodec: "aac"}
}

// AudioCodec returns the encoder for an audio container, or "" to let
// ffmpeg pick its default.
func AudioCodec(target string) string {
	return audioCodecs[normalizeTarget(target)]
}

// SubtitleCodec returns the encoder for a subtitle format.
func SubtitleCodec(target string) string {
	if codec, ok := subtitleCodecs[normalizeTarget(target)]; ok {
		return codec
	}
	return normalizeTarget(target)
}

// Settings are caller overrides for the video transcode rungs.
type Settings struct {
	VideoCodec string
	CRF        int
	Preset     string
	AudioCodec string
}

// Custom reports whether any video override is set.
func (s Settings) Custom() bool {
	return strings.TrimSpace(s.VideoCodec) != "" || s.CRF > 0 || strings.TrimSpace(s.Preset) != ""
}

// Defaults for H.264 transcodes.
const (
	DefaultCRF    = 23
	DefaultPreset = "medium"
)

// videoArgs returns the encoder flags for a transcode rung.
func (p Profile) videoArgs(s Settings) []string {
	codec := p.VideoCodec
	if v := strings.TrimSpace(s.VideoCodec); v != "" {
		codec = v
	}
	args := []string{"-c:v", codec}
	if !s.Custom() && len(p.VideoArgs) > 0 {
		return append(args, p.VideoArgs...)
	}
	crf := DefaultCRF
	if s.CRF > 0 {
		crf = s.CRF
	}
	args = append(args, "-crf", strconv.Itoa(crf))
	if strings.HasPrefix(codec, "libvpx") {
		return append(args, "-b:v", "0")
	}
	preset := DefaultPreset
	if v := strings.TrimSpace(s.Preset); v != "" {
		preset = v
	}
	return append(args, "-preset", preset)
}

func (p Profile) audioArgs(s Settings) []string {
	codec := p.AudioCodec
	if v := strings.TrimSpace(s.AudioCodec); v != "" {
		codec = v
	}
	return []string{"-c:a", codec}
}

func (p Profile) subtitleArgs() []string {
	if p.SubtitleCodec == "" {
		return []string{"-sn"}
	}
	return []string{"-c:s", p.SubtitleCodec}
}

func normalizeTarget(target string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(target), "."))
}
