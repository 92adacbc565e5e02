package model

import "encoding/json"

// TaskStatus is the server-side lifecycle of a processing task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// Terminal reports whether no further polls are needed.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskError
}

// SubmitResponse is the answer to POST /process.
type SubmitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// Task is one poll response from GET /tasks/{id}. Payload fields stay raw
// so the result package can resolve the legacy and current shapes leniently.
type Task struct {
	ID          string          `json:"task_id,omitempty"`
	Status      TaskStatus      `json:"status"`
	Progress    float64         `json:"progress"`
	CreatedAt   float64         `json:"created_at,omitempty"`
	FileName    string          `json:"file_name,omitempty"`
	DownloadURL string          `json:"download_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	Results     json.RawMessage `json:"results,omitempty"`    // multi-file shape
	Result      json.RawMessage `json:"result,omitempty"`     // single-file shape
	Statistics  json.RawMessage `json:"statistics,omitempty"` // multi-file totals
}
