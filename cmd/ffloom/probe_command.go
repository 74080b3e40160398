package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ffloom/internal/media"
	"ffloom/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "Show the detected media kind and streams of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			path, err := resolveInput(args[0])
			if err != nil {
				return err
			}
			kind := media.Detect(path)

			var result ffprobe.Result
			if kind != media.KindDocument && kind != media.KindArchive {
				probed, err := eng.prober.Probe(cmd.Context(), path)
				switch {
				case err == nil:
					result = probed
				case kind != media.KindUnknown:
					return fmt.Errorf("probe %s: %w", path, err)
				}
			}

			if asJSON {
				return writeJSON(cmd, probeView{Path: path, Kind: kind.String(), Probe: result})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderProbeSummary(path, kind, result))
			if len(result.Streams) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderStreams(result.Streams))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the probe result as JSON")
	return cmd
}

type probeView struct {
	Path  string         `json:"path"`
	Kind  string         `json:"kind"`
	Probe ffprobe.Result `json:"probe"`
}

var titleCaser = cases.Title(language.Und)

func kindLabel(kind media.Kind) string {
	return titleCaser.String(kind.String())
}

func renderProbeSummary(path string, kind media.Kind, result ffprobe.Result) string {
	pairs := [][2]string{
		{"File", path},
		{"Kind", kindLabel(kind)},
		{"Container", strings.TrimSpace(result.Format.FormatName)},
	}
	if d := result.DurationSeconds(); d > 0 && !math.IsNaN(d) {
		pairs = append(pairs, [2]string{"Duration", formatClock(d)})
	}
	if size := result.SizeBytes(); size > 0 {
		pairs = append(pairs, [2]string{"Size", humanize.IBytes(uint64(size))})
	}
	if rate := result.BitRate(); rate > 0 {
		pairs = append(pairs, [2]string{"Bitrate", humanize.SI(float64(rate), "b/s")})
	}
	return renderFields(pairs)
}

func renderStreams(streams []ffprobe.Stream) string {
	rows := make([][]string, 0, len(streams))
	for _, s := range streams {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			titleCaser.String(strings.ToLower(s.CodecType)),
			s.CodecName,
			streamDetail(s),
		})
	}
	return renderTable([]string{"#", "Type", "Codec", "Detail"}, rows, []columnAlignment{alignRight})
}

func streamDetail(s ffprobe.Stream) string {
	switch strings.ToLower(s.CodecType) {
	case "video":
		detail := fmt.Sprintf("%dx%d", s.Width, s.Height)
		if s.PixFmt != "" {
			detail += " " + s.PixFmt
		}
		return detail
	case "audio":
		parts := make([]string, 0, 2)
		if s.Channels > 0 {
			parts = append(parts, fmt.Sprintf("%d ch", s.Channels))
		}
		if s.SampleRate != "" {
			parts = append(parts, s.SampleRate+" Hz")
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// formatClock renders seconds as h:mm:ss.
func formatClock(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
