// Package api exposes the correction service endpoints as typed calls.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/transport"
)

// UploadField is the multipart field name the service reads files from.
const UploadField = "files"

// Service calls the correction service through a transport.Client.
type Service struct {
	client *transport.Client
}

// New creates a Service.
func New(client *transport.Client) *Service {
	return &Service{client: client}
}

// Health probes GET /health.
func (s *Service) Health(ctx context.Context) (*model.Health, error) {
	var h model.Health
	if err := s.client.Get(ctx, "health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Dictionary fetches one dictionary.
func (s *Service) Dictionary(ctx context.Context, kind model.Kind) (model.Dictionary, error) {
	var d model.Dictionary
	if err := s.client.Get(ctx, "dictionaries/"+string(kind), nil, &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = model.Dictionary{}
	}
	return d, nil
}

// SaveDictionary replaces one dictionary wholesale.
func (s *Service) SaveDictionary(ctx context.Context, kind model.Kind, pin string, dict model.Dictionary) (*model.SaveResponse, error) {
	if dict == nil {
		dict = model.Dictionary{}
	}
	body := struct {
		PIN        string           `json:"pin"`
		Dictionary model.Dictionary `json:"dictionary"`
	}{PIN: pin, Dictionary: dict}

	var resp model.SaveResponse
	if err := s.client.Post(ctx, "dictionaries/"+string(kind), body, &resp); err != nil {
		return nil, authError(err)
	}
	return &resp, nil
}

// UpdateTerm sends a single-term mutation.
func (s *Service) UpdateTerm(ctx context.Context, m model.TermMutation) (*model.MutationResponse, error) {
	var resp model.MutationResponse
	if err := s.client.Post(ctx, "dictionaries/update-term", m, &resp); err != nil {
		err = authError(err)
		if m.Action == model.ActionDelete && statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("delete %s term %q: %w", m.Kind, m.Term, errs.ErrTermNotFound)
		}
		return nil, err
	}
	return &resp, nil
}

// Search runs the server-side term search.
func (s *Service) Search(ctx context.Context, query string, scope model.SearchScope) (model.SearchResults, error) {
	if scope == "" {
		scope = model.ScopeAll
	}
	var resp struct {
		Results model.SearchResults `json:"results"`
	}
	q := url.Values{"q": {query}, "type": {string(scope)}}
	if err := s.client.Get(ctx, "dictionaries/search", q, &resp); err != nil {
		return model.SearchResults{}, err
	}
	if resp.Results.Correction == nil {
		resp.Results.Correction = model.Dictionary{}
	}
	if resp.Results.Protection == nil {
		resp.Results.Protection = model.Dictionary{}
	}
	return resp.Results, nil
}

// Process uploads files and returns the new task id.
func (s *Service) Process(ctx context.Context, files []string) (string, error) {
	var resp model.SubmitResponse
	if err := s.client.UploadFiles(ctx, "process", UploadField, files, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", &errs.TransportError{
			Method:  http.MethodPost,
			URL:     s.client.BaseURL() + "/process",
			Status:  http.StatusOK,
			Message: "invalid response format: missing task_id",
		}
	}
	return resp.TaskID, nil
}

// Task polls one task.
func (s *Service) Task(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := s.client.Get(ctx, "tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

// Download fetches one corrected file.
func (s *Service) Download(ctx context.Context, name string) ([]byte, error) {
	return s.client.GetBinary(ctx, "download/"+url.PathEscape(name))
}

// DownloadMultiple fetches several corrected files as one zip archive.
func (s *Service) DownloadMultiple(ctx context.Context, names []string) ([]byte, error) {
	body := struct {
		Filenames []string `json:"filenames"`
	}{Filenames: names}
	return s.client.PostForBinary(ctx, "download-multiple", body)
}

// authError turns a 403 into an UnauthorizedError.
func authError(err error) error {
	if statusOf(err) == http.StatusForbidden {
		return &errs.UnauthorizedError{Err: err}
	}
	return err
}

func statusOf(err error) int {
	var te *errs.TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
