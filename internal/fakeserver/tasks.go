package fakeserver

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/util"
)

const maxUploadBytes = 32 << 20

type upload struct {
	name    string
	content []byte
}

type task struct {
	id        string
	files     []upload
	polls     int
	createdAt time.Time
	status    model.TaskStatus
	progress  int
	response  gin.H // cached terminal answer
}

// Process accepts uploads under "files" (or the older "file") and queues a task.
func (s *Server) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		abort(c, http.StatusBadRequest, "No files provided")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		abort(c, http.StatusBadRequest, "No files provided")
		return
	}

	var files []upload
	for _, h := range headers {
		if !util.HasExtension(h.Filename, []string{".srt"}) {
			continue
		}
		f, err := h.Open()
		if err != nil {
			abort(c, http.StatusBadRequest, "Cannot read upload "+h.Filename)
			return
		}
		content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		_ = f.Close()
		if err != nil {
			abort(c, http.StatusBadRequest, "Cannot read upload "+h.Filename)
			return
		}
		files = append(files, upload{name: util.SafeFilename(h.Filename), content: content})
	}
	if len(files) == 0 {
		abort(c, http.StatusBadRequest, "No valid SRT files provided")
		return
	}

	t := &task{
		id:        uuid.NewString(),
		files:     files,
		createdAt: time.Now(),
		status:    model.TaskQueued,
	}
	s.mu.Lock()
	s.tasks[t.id] = t
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Processing %d file(s)", len(files)),
		"task_id": t.id,
	})
}

// TaskStatus advances the task one step and reports it: the first poll sees
// "queued", the next PollsPerFile*len(files) polls see "processing", then the
// task completes (or fails when FailWith is set).
func (s *Server) TaskStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[c.Param("id")]
	if !ok {
		abort(c, http.StatusNotFound, "Task not found")
		return
	}
	if t.response != nil {
		c.JSON(http.StatusOK, t.response)
		return
	}

	t.polls++
	steps := s.opts.PollsPerFile * len(t.files)
	switch {
	case t.polls == 1:
		t.status, t.progress = model.TaskQueued, 0
	case t.polls <= steps+1:
		t.status, t.progress = model.TaskProcessing, (t.polls-1)*100/(steps+1)
	case s.opts.FailWith != "":
		t.status = model.TaskError
		t.response = gin.H{
			"status":     t.status,
			"progress":   t.progress,
			"created_at": unixSeconds(t.createdAt),
			"error":      s.opts.FailWith,
		}
		c.JSON(http.StatusOK, t.response)
		return
	default:
		t.status, t.progress = model.TaskCompleted, 100
		t.response = s.complete(t)
		c.JSON(http.StatusOK, t.response)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     t.status,
		"progress":   t.progress,
		"created_at": unixSeconds(t.createdAt),
	})
}

// complete corrects every upload and builds the terminal answer. Callers hold s.mu.
func (s *Server) complete(t *task) gin.H {
	start := time.Now()
	results := make([]gin.H, 0, len(t.files))
	total, processed := 0, 0

	for _, f := range t.files {
		if len(bytes.TrimSpace(f.content)) == 0 {
			results = append(results, gin.H{
				"original_filename": f.name,
				"error":             "File is empty",
				"status":            "error",
			})
			continue
		}
		corrected, replacements := s.correct(string(f.content))
		outName := strings.TrimSuffix(f.name, filepath.Ext(f.name)) + "_corrected.srt"
		s.outputs[outName] = []byte(corrected)

		n := 0
		for _, count := range replacements {
			n += count
		}
		total += n
		processed++
		results = append(results, gin.H{
			"original_filename":  f.name,
			"corrected_filename": outName,
			"replacements":       replacements,
			"total_replacements": n,
			"download_url":       "/api/download/" + outName,
		})
	}
	elapsed := time.Since(start).Seconds()

	if s.opts.LegacySingle && len(t.files) == 1 && processed == 1 {
		r := results[0]
		return gin.H{
			"status":       model.TaskCompleted,
			"progress":     100,
			"created_at":   unixSeconds(t.createdAt),
			"file_name":    r["original_filename"],
			"download_url": r["download_url"],
			"result": gin.H{
				"original_file":      "uploads/" + t.id + "_" + t.files[0].name,
				"corrected_file":     "outputs/" + r["corrected_filename"].(string),
				"replacements":       r["replacements"],
				"total_replacements": r["total_replacements"],
				"processing_time":    elapsed,
			},
		}
	}

	return gin.H{
		"status":     model.TaskCompleted,
		"progress":   100,
		"created_at": unixSeconds(t.createdAt),
		"results":    results,
		"statistics": gin.H{
			"totalFiles":       len(t.files),
			"filesProcessed":   processed,
			"totalCorrections": total,
			"processingTime":   elapsed,
		},
	}
}

// correct is a simple stand-in for the real correction engine: whole-word,
// case-insensitive replacement of correction terms, skipping protected terms.
// Callers hold s.mu.
func (s *Server) correct(text string) (string, map[string]int) {
	protected := map[string]bool{}
	for term := range s.dicts[model.KindProtection] {
		protected[strings.ToLower(term)] = true
	}

	corrections := s.dicts[model.KindCorrection]
	terms := corrections.Keys()
	// longer terms first so phrases win over their parts
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	replacements := map[string]int{}
	for _, wrong := range terms {
		if protected[strings.ToLower(wrong)] {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(wrong) + `\b`)
		if err != nil {
			continue
		}
		right := corrections[wrong]
		n := len(re.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		text = re.ReplaceAllLiteralString(text, right)
		key := wrong
		if right != "" {
			key = wrong + " -> " + right
		}
		replacements[key] = n
	}
	return text, replacements
}

// Download serves one corrected file.
func (s *Server) Download(c *gin.Context) {
	name := util.SafeFilename(c.Param("filename"))

	s.mu.Lock()
	data, ok := s.outputs[name]
	s.mu.Unlock()

	if !ok {
		abort(c, http.StatusNotFound, "File not found")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/x-subrip", data)
}

// DownloadMultiple zips the requested corrected files. Unknown names are skipped.
func (s *Server) DownloadMultiple(c *gin.Context) {
	var body struct {
		Filenames []string `json:"filenames"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Filenames) == 0 {
		abort(c, http.StatusBadRequest, "No files specified")
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	added := 0

	s.mu.Lock()
	for _, raw := range body.Filenames {
		name := util.SafeFilename(raw)
		data, ok := s.outputs[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err == nil {
			_, err = w.Write(data)
		}
		if err != nil {
			s.mu.Unlock()
			abort(c, http.StatusInternalServerError, "Cannot build archive")
			return
		}
		added++
	}
	s.mu.Unlock()

	if err := zw.Close(); err != nil {
		abort(c, http.StatusInternalServerError, "Cannot build archive")
		return
	}
	if added == 0 {
		abort(c, http.StatusNotFound, "No valid files found")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="corrected_subtitles.zip"`)
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
