package model

import "testing"

func TestFileResult_DownloadName(t *testing.T) {
	tests := []struct {
		name string
		in   FileResult
		want string
	}{
		{"from url", FileResult{DownloadURL: "/api/download/a_corrected.srt", CorrectedFilename: "other.srt"}, "a_corrected.srt"},
		{"from corrected", FileResult{CorrectedFilename: "b_corrected.srt"}, "b_corrected.srt"},
		{"empty", FileResult{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.DownloadName(); got != tt.want {
				t.Errorf("DownloadName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileResult_SortedReplacements(t *testing.T) {
	f := FileResult{Replacements: map[string]int{"teh -> the": 2, "uh": 5, "recieve -> receive": 2}}
	got := f.SortedReplacements()
	if len(got) != 3 {
		t.Fatalf("expected 3 replacements, got %d", len(got))
	}
	if got[0].Wrong != "uh" || got[0].Correct != "" || got[0].Count != 5 {
		t.Errorf("unexpected first replacement: %+v", got[0])
	}
	if got[1].Wrong != "recieve" || got[1].Correct != "receive" {
		t.Errorf("unexpected second replacement: %+v", got[1])
	}
	if f.Corrections() != 9 {
		t.Errorf("Corrections() = %d, want 9", f.Corrections())
	}
}

func TestBatchResult_DownloadNames(t *testing.T) {
	b := &BatchResult{Files: []FileResult{
		{OriginalFilename: "a.srt", DownloadURL: "/api/download/a_corrected.srt"},
		{OriginalFilename: "b.srt", Error: "bad encoding"},
		{OriginalFilename: "c.srt"},
	}}
	names := b.DownloadNames()
	if len(names) != 1 || names[0] != "a_corrected.srt" {
		t.Errorf("DownloadNames() = %v", names)
	}
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	if err != nil || s != ScopeAll {
		t.Errorf("ParseScope(\"\") = %q, %v", s, err)
	}
	if _, err := ParseScope("other"); err == nil {
		t.Error("expected error for unknown scope")
	}
	if !ScopeCorrection.Includes(KindCorrection) || ScopeCorrection.Includes(KindProtection) {
		t.Error("correction scope should include only correction")
	}
}
