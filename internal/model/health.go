package model

// Health is the answer to GET /health.
type Health struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	Timestamp float64 `json:"timestamp"`
}
