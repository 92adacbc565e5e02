package task

import (
	"os"
	"strings"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/util"
)

// ValidateFiles checks a batch before upload: it must be non-empty and every
// member must be an existing regular file with an accepted extension.
func ValidateFiles(files []string, exts []string) error {
	if len(files) == 0 {
		return &errs.ValidationError{Field: "files", Reason: "no files selected"}
	}
	for _, f := range files {
		if !util.HasExtension(f, exts) {
			return &errs.ValidationError{
				Field:  "file",
				Value:  f,
				Reason: "only " + strings.Join(exts, ", ") + " files are accepted",
			}
		}
		info, err := os.Stat(f)
		if err != nil {
			return &errs.ValidationError{Field: "file", Value: f, Reason: "cannot read file"}
		}
		if info.IsDir() {
			return &errs.ValidationError{Field: "file", Value: f, Reason: "is a directory"}
		}
	}
	return nil
}
