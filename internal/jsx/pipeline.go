package jsx

import (
	"regexp"
	"strings"
	"unicode"
)

// Stage is one named rewrite step.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Step records the text produced by a stage, for tracing.
type Step struct {
	Stage  string
	Output string
}

const colorFill = "fill={color} "

var (
	svgRoot   = regexp.MustCompile(`<svg[^>]*>([\s\S]*?)</svg>`)
	kebabPair = regexp.MustCompile(`[a-z]+-[a-z]+`)
	startTag  = regexp.MustCompile(`<[a-z]+[^>]*>`)
	fillAttr  = regexp.MustCompile(`fill="[^"]*"`)
	tagHead   = regexp.MustCompile(`<[a-z]`)
)

var common = []Stage{
	{"unwrap-svg", unwrapSVG},
	{"camel-case", camelCase},
	{"fragment-wrap", wrapFragment},
	{"trim-lines", trimLines},
	{"trim-blank-lines", trimBlankLines},
}

// Stages returns the ordered stages run for mode. The mode-specific rewrite
// is always last.
func Stages(m Mode) []Stage {
	out := make([]Stage, 0, len(common)+2)
	out = append(out, common...)
	if m == ReactNative {
		return append(out,
			Stage{"capitalize-tags", capitalizeTags},
			Stage{"bind-fill", bindFill},
		)
	}
	return append(out, Stage{"strip-fill", stripFill})
}

// Transform runs every stage for mode over input.
func Transform(input string, m Mode) string {
	s := input
	for _, st := range Stages(m) {
		s = st.Apply(s)
	}
	return s
}

// Trace is Transform, keeping the output of every stage.
func Trace(input string, m Mode) []Step {
	stages := Stages(m)
	steps := make([]Step, 0, len(stages))
	s := input
	for _, st := range stages {
		s = st.Apply(s)
		steps = append(steps, Step{Stage: st.Name, Output: s})
	}
	return steps
}

// HasOutput reports whether output has anything besides whitespace.
func HasOutput(output string) bool {
	return len(strings.TrimSpace(output)) > 0
}

// CountStartTags counts `<name ...>` sequences with a lowercase name. It is
// deliberately naive: nesting, comments and self-closing tags are not told
// apart.
func CountStartTags(s string) int {
	return len(startTag.FindAllStringIndex(s, -1))
}

func unwrapSVG(s string) string {
	return svgRoot.ReplaceAllString(s, "$1")
}

// camelCase makes one non-overlapping pass, so a-b-c becomes aB-c.
func camelCase(s string) string {
	return kebabPair.ReplaceAllStringFunc(s, func(m string) string {
		head, tail, _ := strings.Cut(m, "-")
		return head + strings.ToUpper(tail[:1]) + tail[1:]
	})
}

func wrapFragment(s string) string {
	if CountStartTags(s) > 1 {
		return "<>" + s + "</>"
	}
	return s
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimFunc(l, isSpace)
	}
	return strings.Join(lines, "\n")
}

func trimBlankLines(s string) string {
	return strings.Trim(s, "\n")
}

func stripFill(s string) string {
	return fillAttr.ReplaceAllLiteralString(s, "")
}

func capitalizeTags(s string) string {
	return tagHead.ReplaceAllStringFunc(s, strings.ToUpper)
}

func bindFill(s string) string {
	return fillAttr.ReplaceAllLiteralString(s, colorFill)
}

// isSpace also drops the byte order mark that pasted text sometimes carries.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
