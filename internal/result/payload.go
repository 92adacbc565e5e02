// Package result turns a completed task into a BatchResult. The server has
// answered in two shapes over time: a "results" array (one record per file)
// and an older single "result" object. Both are resolved here and nowhere else.
package result

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"

	"github.com/ppiankov/srtctl/internal/model"
)

// Shape tags which payload layout a task carried.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeMulti
	ShapeSingle
)

func (s Shape) String() string {
	switch s {
	case ShapeMulti:
		return "multi"
	case ShapeSingle:
		return "single"
	default:
		return "empty"
	}
}

// Payload is a resolved task payload.
type Payload struct {
	Shape Shape
	Files []model.FileResult

	// server-reported totals; nil when absent or not numeric
	TotalCorrections *int
	TotalFiles       *int
	FilesProcessed   *int
	ProcessingTime   *float64
}

// Resolve inspects task once and returns its tagged payload. It never fails:
// malformed or missing fields fall back to zero values.
func Resolve(task *model.Task) Payload {
	if task == nil {
		return Payload{Shape: ShapeEmpty}
	}

	records := decodeArray(task.Results)
	single := decodeObject(task.Result)

	switch {
	case len(records) > 0 || (single == nil && task.Results != nil && isArray(task.Results)):
		return resolveMulti(records, decodeObject(task.Statistics))
	case single != nil:
		return resolveSingle(task, single)
	default:
		return Payload{Shape: ShapeEmpty, Files: []model.FileResult{}}
	}
}

func resolveMulti(records []map[string]any, stats map[string]any) Payload {
	p := Payload{Shape: ShapeMulti, Files: make([]model.FileResult, 0, len(records))}
	for _, rec := range records {
		p.Files = append(p.Files, fileFromRecord(rec))
	}
	p.TotalCorrections = intField(stats, "totalCorrections", "total_corrections")
	p.TotalFiles = intField(stats, "totalFiles", "total_files")
	p.FilesProcessed = intField(stats, "filesProcessed", "files_processed")
	p.ProcessingTime = floatField(stats, "processingTime", "processing_time")
	return p
}

func resolveSingle(task *model.Task, rec map[string]any) Payload {
	f := fileFromRecord(rec)
	if task.FileName != "" {
		f.OriginalFilename = task.FileName
	}
	if task.DownloadURL != "" {
		f.DownloadURL = task.DownloadURL
	}
	return Payload{
		Shape:            ShapeSingle,
		Files:            []model.FileResult{f},
		TotalCorrections: intField(rec, "total_replacements", "totalReplacements"),
		ProcessingTime:   floatField(rec, "processing_time", "processingTime"),
	}
}

func fileFromRecord(rec map[string]any) model.FileResult {
	f := model.FileResult{
		OriginalFilename:  firstString(rec, "original_filename", "originalFilename"),
		CorrectedFilename: firstString(rec, "corrected_filename", "correctedFilename"),
		DownloadURL:       firstString(rec, "download_url", "downloadUrl"),
		Error:             firstString(rec, "error"),
		Replacements:      counts(rec["replacements"]),
	}
	if f.OriginalFilename == "" {
		f.OriginalFilename = baseName(firstString(rec, "original_file"))
	}
	if f.CorrectedFilename == "" {
		f.CorrectedFilename = baseName(firstString(rec, "corrected_file"))
	}
	if f.Error == "" && firstString(rec, "status") == "error" {
		f.Error = "Unknown error"
	}
	return f
}

func counts(v any) map[string]int {
	out := map[string]int{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, raw := range m {
		if n, ok := toInt(raw); ok {
			out[k] = n
		}
	}
	return out
}

func decodeArray(raw json.RawMessage) []map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}

func isArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		if n, ok := toInt(m[k]); ok {
			return &n
		}
	}
	return nil
}

func floatField(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// baseName strips directories from server-side paths of either separator style.
func baseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
