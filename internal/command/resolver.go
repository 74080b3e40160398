package command

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"ffloom/internal/logging"
	"ffloom/internal/media"
	"ffloom/internal/services"
)

const (
	// DefaultPrefix is the placeholder marker used when none is configured.
	DefaultPrefix = "mltb"
	// DeleteFlag requests removal of the primary input after a validated run.
	// It is stripped before the tool is spawned.
	DeleteFlag = "-del"
	// TempMarker tags the scratch name used when an output would overwrite
	// one of its own inputs.
	TempMarker = ".ffloom-tmp"
)

var formatVerb = regexp.MustCompile(`%(0?)(\d*)d`)

// Request is one resolution input. Aux lists auxiliary inputs per kind in
// the order they should be consumed.
type Request struct {
	Template []string
	Input    string
	Aux      map[media.Kind][]string
}

// Output is one declared output. Path is what the tool writes; Final is the
// name handed back to the caller. They differ only when the output replaces
// an input.
type Output struct {
	Path  string
	Final string
}

// Replaces reports whether the output is renamed over an input after the run.
func (o Output) Replaces() bool {
	return o.Path != o.Final
}

// Resolved is a concrete invocation.
type Resolved struct {
	Tool        string
	Args        []string
	Inputs      []string
	Outputs     []Output
	DeleteInput bool
	Input       string
}

// Paths returns the files the tool writes.
func (r Resolved) Paths() []string {
	out := make([]string, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		out = append(out, o.Path)
	}
	return out
}

// Finals returns the files handed back to the caller.
func (r Resolved) Finals() []string {
	out := make([]string, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		out = append(out, o.Final)
	}
	return out
}

// Resolver expands templates. It holds no per-call state.
type Resolver struct {
	prefix string
	detect media.Detector
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(r *Resolver) {
		if p := strings.TrimSpace(prefix); p != "" {
			r.prefix = p
		}
	}
}

// WithDetector replaces media.Detect.
func WithDetector(detect media.Detector) Option {
	return func(r *Resolver) {
		if detect != nil {
			r.detect = detect
		}
	}
}

// WithLogger attaches a logger for placeholder fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "resolver")
	}
}

// NewResolver constructs a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		prefix: DefaultPrefix,
		detect: media.Detect,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the placeholder marker.
func (r *Resolver) Prefix() string {
	return r.prefix
}

// Resolve expands req into a concrete invocation.
func (r *Resolver) Resolve(req Request) (Resolved, error) {
	primary := strings.TrimSpace(req.Input)
	if primary == "" {
		return Resolved{}, services.MalformedTemplate("primary input is required")
	}
	if len(req.Template) == 0 {
		return Resolved{}, services.MalformedTemplate("template is empty")
	}

	tokens := slices.Clone(req.Template)
	res := Resolved{Input: primary}
	if first := tokens[0]; !strings.HasPrefix(first, "-") && !r.isPlaceholder(first) {
		res.Tool = first
		tokens = tokens[1:]
	}
	tokens = slices.DeleteFunc(tokens, func(tok string) bool {
		if tok == DeleteFlag {
			res.DeleteInput = true
			return true
		}
		return false
	})

	st := &resolveState{
		resolver: r,
		req:      req,
		primary:  primary,
		dir:      filepath.Dir(primary),
		used:     make(map[string]bool),
	}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-i":
			if i+1 >= len(tokens) {
				return Resolved{}, services.MalformedTemplate("-i at position %d has no value", i)
			}
			i++
			value, err := st.resolveInput(tokens[i])
			if err != nil {
				return Resolved{}, err
			}
			st.inputs = append(st.inputs, value)
			st.args = append(st.args, "-i", value)
			st.segStart = len(st.args)
		case tok == "-map" && i+1 < len(tokens):
			i++
			st.allMaps = append(st.allMaps, tokens[i])
			st.args = append(st.args, tok, tokens[i])
		case r.isPlaceholder(tok):
			if err := st.emitOutput(tok); err != nil {
				return Resolved{}, err
			}
			st.segStart = len(st.args)
		default:
			st.args = append(st.args, tok)
		}
	}
	if len(st.outputs) == 0 {
		return Resolved{}, services.MalformedTemplate("template declares no output placeholder")
	}

	res.Args = st.args
	res.Inputs = st.inputs
	res.Outputs = st.outputs
	return res, nil
}

func (r *Resolver) isPlaceholder(tok string) bool {
	return strings.HasPrefix(tok, r.prefix)
}

type resolveState struct {
	resolver *Resolver
	req      Request
	primary  string
	dir      string

	args     []string
	inputs   []string
	allMaps  []string
	outputs  []Output
	used     map[string]bool
	segStart int
}

func (st *resolveState) resolveInput(tok string) (string, error) {
	r := st.resolver
	if !r.isPlaceholder(tok) {
		return tok, nil
	}
	rest := strings.TrimPrefix(tok, r.prefix)
	if rest == "" {
		return st.primary, nil
	}
	if !strings.HasPrefix(rest, ".") {
		return "", services.MalformedTemplate("input placeholder %q is not a known kind", tok)
	}
	kind, err := media.ParseKind(rest[1:])
	if err != nil {
		return "", services.MalformedTemplate("input placeholder %q: %v", tok, err)
	}
	for _, candidate := range st.req.Aux[kind] {
		if candidate == "" || st.used[candidate] {
			continue
		}
		st.used[candidate] = true
		return candidate, nil
	}
	if r.detect(st.primary) == kind {
		return st.primary, nil
	}
	logging.WarnWithContext(r.logger, "placeholder kind does not match primary input", "placeholder_fallback",
		logging.String("placeholder", tok),
		logging.String("input", st.primary),
		logging.String(logging.FieldImpact, "tool may reject the input"),
		logging.String(logging.FieldErrorHint, "supply an auxiliary "+kind.String()+" input"),
	)
	return st.primary, nil
}

func (st *resolveState) emitOutput(tok string) error {
	suffix := strings.TrimPrefix(tok, st.resolver.prefix)
	verbs := formatVerb.FindAllStringSubmatchIndex(suffix, -1)
	if len(verbs) > 1 {
		return services.MalformedTemplate("output %q has %d numeric verbs", tok, len(verbs))
	}
	if len(verbs) == 0 {
		source := st.sourceFor(st.nearestMap())
		st.args = append(st.args, st.addOutput(source, suffix))
		return nil
	}

	segment := slices.Clone(st.args[st.segStart:])
	var maps, options []string
	for i := 0; i < len(segment); i++ {
		if segment[i] == "-map" && i+1 < len(segment) {
			maps = append(maps, segment[i+1])
			i++
			continue
		}
		options = append(options, segment[i])
	}
	st.args = st.args[:st.segStart]

	verb := verbs[0]
	pad := suffix[verb[2]:verb[3]] != ""
	width := 0
	if verb[4] != verb[5] {
		width, _ = strconv.Atoi(suffix[verb[4]:verb[5]])
	}
	expand := func(index int) string {
		n := strconv.Itoa(index)
		if pad && len(n) < width {
			n = strings.Repeat("0", width-len(n)) + n
		} else if !pad && len(n) < width {
			n = strings.Repeat(" ", width-len(n)) + n
		}
		return suffix[:verb[0]] + n + suffix[verb[1]:]
	}

	if len(maps) > 0 {
		for i, m := range maps {
			st.args = append(st.args, "-map", m)
			st.args = append(st.args, options...)
			st.args = append(st.args, st.addOutput(st.sourceFor(m), expand(i+1)))
		}
		return nil
	}

	count := max(1, len(st.allMaps))
	source := st.sourceFor(st.nearestMap())
	for i := 1; i <= count; i++ {
		st.args = append(st.args, options...)
		st.args = append(st.args, st.addOutput(source, expand(i)))
	}
	return nil
}

// addOutput records an output named after source and returns the path the
// tool should write.
func (st *resolveState) addOutput(source, suffix string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := stem + suffix
	if suffix == "" {
		name = base
	}
	final := filepath.Join(st.dir, name)

	path := final
	if st.isInput(final) {
		path = filepath.Join(st.dir, strings.TrimSuffix(name, filepath.Ext(name))+TempMarker+filepath.Ext(name))
	}
	st.outputs = append(st.outputs, Output{Path: path, Final: final})
	return path
}

func (st *resolveState) isInput(path string) bool {
	clean := filepath.Clean(path)
	for _, in := range st.inputs {
		if filepath.Clean(in) == clean {
			return true
		}
	}
	return filepath.Clean(st.primary) == clean
}

// nearestMap returns the last -map value emitted so far, or "".
func (st *resolveState) nearestMap() string {
	if len(st.allMaps) == 0 {
		return ""
	}
	return st.allMaps[len(st.allMaps)-1]
}

// sourceFor maps a -map specifier such as "1:a:0" to the input it selects.
// Filter labels and out-of-range indexes fall back to the primary input.
func (st *resolveState) sourceFor(spec string) string {
	idx, ok := MapInputIndex(spec)
	if !ok || idx >= len(st.inputs) {
		return st.primary
	}
	return st.inputs[idx]
}

// MapInputIndex extracts the input file index from a -map specifier.
func MapInputIndex(spec string) (int, bool) {
	spec = strings.TrimPrefix(strings.TrimSpace(spec), "-")
	if spec == "" || strings.HasPrefix(spec, "[") {
		return 0, false
	}
	head, _, _ := strings.Cut(spec, ":")
	head = strings.TrimSuffix(head, "?")
	idx, err := strconv.Atoi(head)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// String renders a resolved command for logs.
func (r Resolved) String() string {
	tool := r.Tool
	if tool == "" {
		tool = "ffmpeg"
	}
	return fmt.Sprintf("%s %s", tool, strings.Join(r.Args, " "))
}
