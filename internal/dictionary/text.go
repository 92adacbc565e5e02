package dictionary

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/ppiankov/srtctl/internal/model"
)

// Separator splits a correction line into term and replacement.
const Separator = " -> "

// CheckCorrectionTerm rejects terms the line format cannot carry: a term
// containing Separator, or ending in " ->", would split differently when the
// formatted text is parsed back.
func CheckCorrectionTerm(term string) error {
	if strings.Contains(term, Separator) || strings.HasSuffix(term, " ->") {
		return fmt.Errorf("term %q must not contain %q", term, strings.TrimSpace(Separator))
	}
	return nil
}

// ParseCorrections reads one entry per line: "term -> replacement" or a bare
// term, which means the term is deleted. Lines are trimmed and blank lines
// skipped. A later line for the same term wins.
func ParseCorrections(text string) model.Dictionary {
	out := model.Dictionary{}
	eachLine(text, func(line string) {
		term, value := line, ""
		if i := strings.Index(line, Separator); i >= 0 {
			term, value = line[:i], line[i+len(Separator):]
		} else if strings.HasSuffix(line, " ->") {
			term = strings.TrimSuffix(line, " ->")
		}
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		out[term] = strings.TrimSpace(value)
	})
	return out
}

// FormatCorrections writes one line per entry sorted by term. An empty
// replacement collapses to a bare line. Terms failing CheckCorrectionTerm do
// not survive a round trip.
func FormatCorrections(d model.Dictionary) string {
	var b strings.Builder
	for _, term := range d.Keys() {
		if term == "" {
			continue
		}
		b.WriteString(term)
		if v := d[term]; v != "" {
			b.WriteString(Separator)
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseProtections reads one protected term per line.
func ParseProtections(text string) model.Dictionary {
	out := model.Dictionary{}
	eachLine(text, func(line string) {
		out[line] = ""
	})
	return out
}

// FormatProtections writes the protected terms sorted, one per line.
func FormatProtections(d model.Dictionary) string {
	var b strings.Builder
	for _, term := range d.Keys() {
		if term == "" {
			continue
		}
		b.WriteString(term)
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse dispatches on kind.
func Parse(kind model.Kind, text string) model.Dictionary {
	if kind == model.KindProtection {
		return ParseProtections(text)
	}
	return ParseCorrections(text)
}

// Format dispatches on kind.
func Format(kind model.Kind, d model.Dictionary) string {
	if kind == model.KindProtection {
		return FormatProtections(d)
	}
	return FormatCorrections(d)
}

func eachLine(text string, fn func(string)) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			fn(line)
		}
	}
}
