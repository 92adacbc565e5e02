package result

import "github.com/ppiankov/srtctl/internal/model"

// Aggregate normalizes a completed task into a BatchResult. The server's
// explicit total wins over the sum of per-file counts. File order is kept.
func Aggregate(task *model.Task) model.BatchResult {
	p := Resolve(task)

	out := model.BatchResult{Files: p.Files}
	if out.Files == nil {
		out.Files = []model.FileResult{}
	}
	if task != nil {
		out.TaskID = task.ID
	}

	if p.TotalCorrections != nil {
		out.Statistics.TotalCorrections = *p.TotalCorrections
	} else {
		for _, f := range p.Files {
			out.Statistics.TotalCorrections += f.Corrections()
		}
	}
	if p.TotalFiles != nil {
		out.Statistics.TotalFiles = *p.TotalFiles
	} else {
		out.Statistics.TotalFiles = len(p.Files)
	}
	if p.FilesProcessed != nil {
		out.Statistics.FilesProcessed = *p.FilesProcessed
	} else {
		for _, f := range p.Files {
			if !f.Failed() {
				out.Statistics.FilesProcessed++
			}
		}
	}
	if p.ProcessingTime != nil {
		out.Statistics.ProcessingTime = *p.ProcessingTime
	}
	return out
}
