package model

import (
	"path"
	"sort"
	"strings"
)

// FileResult is the normalized outcome for one submitted file.
type FileResult struct {
	OriginalFilename  string         `json:"original_filename"`
	CorrectedFilename string         `json:"corrected_filename"`
	Replacements      map[string]int `json:"replacements"` // "wrong -> correct" or bare term -> count
	DownloadURL       string         `json:"download_url"`
	Error             string         `json:"error,omitempty"` // per-file failure inside a completed batch
}

// Failed reports whether the server rejected this file.
func (f FileResult) Failed() bool { return f.Error != "" }

// Corrections sums the replacement counts.
func (f FileResult) Corrections() int {
	total := 0
	for _, n := range f.Replacements {
		total += n
	}
	return total
}

// DownloadName is the name to request from /download/{filename}.
func (f FileResult) DownloadName() string {
	if f.DownloadURL != "" {
		if name := path.Base(f.DownloadURL); name != "." && name != "/" {
			return name
		}
	}
	if f.CorrectedFilename == "" {
		return ""
	}
	return path.Base(f.CorrectedFilename)
}

// Replacement is one parsed entry of FileResult.Replacements.
type Replacement struct {
	Wrong   string `json:"wrong"`
	Correct string `json:"correct"`
	Count   int    `json:"count"`
}

// SortedReplacements splits the replacement keys and orders them by count
// descending, then by key.
func (f FileResult) SortedReplacements() []Replacement {
	out := make([]Replacement, 0, len(f.Replacements))
	for key, n := range f.Replacements {
		r := Replacement{Wrong: key, Count: n}
		if wrong, correct, ok := strings.Cut(key, " -> "); ok {
			r.Wrong, r.Correct = wrong, correct
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Wrong < out[j].Wrong
	})
	return out
}

// Statistics summarizes a completed batch.
type Statistics struct {
	TotalCorrections     int     `json:"total_corrections"`
	ProtectedTermsCount  int     `json:"protected_terms_count"`
	CorrectionTermsCount int     `json:"correction_terms_count"`
	TotalFiles           int     `json:"total_files,omitempty"`
	FilesProcessed       int     `json:"files_processed,omitempty"`
	ProcessingTime       float64 `json:"processing_time,omitempty"` // seconds, as reported by the server
}

// BatchResult is the normalized outcome of one completed task.
type BatchResult struct {
	TaskID     string       `json:"task_id"`
	Files      []FileResult `json:"files"`
	Statistics Statistics   `json:"statistics"`
}

// DownloadNames lists the download names of files that succeeded.
func (b *BatchResult) DownloadNames() []string {
	var names []string
	for _, f := range b.Files {
		if f.Failed() {
			continue
		}
		if name := f.DownloadName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
