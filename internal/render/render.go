// Package render writes batch results as JSON, Markdown and a terminal summary.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/srtctl/internal/model"
)

// Renderer formats BatchResults.
type Renderer struct {
	out           io.Writer
	includeFooter bool
}

// NewRenderer creates a Renderer printing summaries to out.
func NewRenderer(out io.Writer, includeFooter bool) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, includeFooter: includeFooter}
}

// RenderJSON writes res as indented JSON to path.
func (r *Renderer) RenderJSON(res *model.BatchResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the Markdown report to path.
func (r *Renderer) RenderMarkdown(res *model.BatchResult, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(res)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report.
func (r *Renderer) Markdown(res *model.BatchResult) string {
	var b strings.Builder
	s := res.Statistics

	b.WriteString("# Subtitle Correction Report\n\n")
	if res.TaskID != "" {
		fmt.Fprintf(&b, "Task: `%s`\n\n", res.TaskID)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Files | %d |\n", len(res.Files))
	fmt.Fprintf(&b, "| Files processed | %d |\n", s.FilesProcessed)
	fmt.Fprintf(&b, "| Total corrections | %d |\n", s.TotalCorrections)
	fmt.Fprintf(&b, "| Correction terms | %d |\n", s.CorrectionTermsCount)
	fmt.Fprintf(&b, "| Protected terms | %d |\n", s.ProtectedTermsCount)
	if s.ProcessingTime > 0 {
		fmt.Fprintf(&b, "| Processing time | %.2fs |\n", s.ProcessingTime)
	}
	b.WriteString("\n## Files\n")

	for _, f := range res.Files {
		fmt.Fprintf(&b, "\n### %s\n\n", mdEscape(displayName(f)))
		if f.Failed() {
			fmt.Fprintf(&b, "**Failed:** %s\n", mdEscape(f.Error))
			continue
		}
		if f.CorrectedFilename != "" {
			fmt.Fprintf(&b, "Corrected file: `%s`\n\n", f.CorrectedFilename)
		}
		reps := f.SortedReplacements()
		if len(reps) == 0 {
			b.WriteString("No corrections.\n")
			continue
		}
		b.WriteString("| Term | Replacement | Count |\n|---|---|---|\n")
		for _, rep := range reps {
			correct := rep.Correct
			if correct == "" {
				correct = "_(removed)_"
			} else {
				correct = mdEscape(correct)
			}
			fmt.Fprintf(&b, "| %s | %s | %d |\n", mdEscape(rep.Wrong), correct, rep.Count)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n_Generated by srtctl._\n")
	}
	return b.String()
}

// RenderSummary prints a short summary to the renderer's writer.
func (r *Renderer) RenderSummary(res *model.BatchResult) {
	s := res.Statistics
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(r.out, "  Correction Summary")
	fmt.Fprintln(r.out, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(r.out, "  Files:             %d (%d processed)\n", len(res.Files), s.FilesProcessed)
	fmt.Fprintf(r.out, "  Total corrections: %d\n", s.TotalCorrections)
	fmt.Fprintf(r.out, "  Dictionary terms:  %d correction, %d protected\n", s.CorrectionTermsCount, s.ProtectedTermsCount)
	fmt.Fprintln(r.out)

	for _, f := range res.Files {
		if f.Failed() {
			fmt.Fprintf(r.out, "  ✗ %s: %s\n", displayName(f), f.Error)
			continue
		}
		fmt.Fprintf(r.out, "  ✓ %s → %s (%d corrections)\n", displayName(f), f.DownloadName(), f.Corrections())
		for i, rep := range f.SortedReplacements() {
			if i == 5 {
				fmt.Fprintf(r.out, "      … %d more\n", len(f.Replacements)-5)
				break
			}
			if rep.Correct == "" {
				fmt.Fprintf(r.out, "      %-24s removed  ×%d\n", rep.Wrong, rep.Count)
			} else {
				fmt.Fprintf(r.out, "      %-24s → %s  ×%d\n", rep.Wrong, rep.Correct, rep.Count)
			}
		}
	}
	fmt.Fprintln(r.out)
}

func displayName(f model.FileResult) string {
	if f.OriginalFilename != "" {
		return f.OriginalFilename
	}
	return "(unnamed file)"
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
