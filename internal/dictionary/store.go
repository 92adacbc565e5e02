// Package dictionary keeps the client view of the correction and protection
// dictionaries. Every write goes to the server first and is followed by a full
// reload; the local snapshot is never patched in place.
package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/srtctl/internal/cache"
	"github.com/ppiankov/srtctl/internal/errs"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/search"
)

// API is the subset of the service the Store talks to.
type API interface {
	Dictionary(ctx context.Context, kind model.Kind) (model.Dictionary, error)
	SaveDictionary(ctx context.Context, kind model.Kind, pin string, dict model.Dictionary) (*model.SaveResponse, error)
	UpdateTerm(ctx context.Context, m model.TermMutation) (*model.MutationResponse, error)
	Search(ctx context.Context, query string, scope model.SearchScope) (model.SearchResults, error)
}

// Options configures a Store.
type Options struct {
	Cache      cache.Cache // snapshot storage; nil uses a private in-memory cache
	TTL        time.Duration
	Namespace  string // separates snapshots of different servers sharing one cache
	SearchMode model.SearchMode

	// AlwaysReload makes local search fetch both dictionaries instead of
	// reusing the snapshot.
	AlwaysReload bool
}

// Store loads, saves and searches the two dictionaries.
type Store struct {
	api  API
	opts Options

	mu     sync.Mutex
	counts map[model.Kind]int // term counts of the last load, independent of the cache
}

// NewStore creates a Store.
func NewStore(api API, opts Options) *Store {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache(opts.TTL, time.Minute)
	}
	if opts.SearchMode == "" {
		opts.SearchMode = model.SearchRemote
	}
	return &Store{api: api, opts: opts, counts: map[model.Kind]int{}}
}

// BulkSave reports the server answers of a successful SaveBulk.
type BulkSave struct {
	Correction *model.SaveResponse
	Protection *model.SaveResponse
}

// Load fetches one dictionary and replaces its snapshot.
func (s *Store) Load(ctx context.Context, kind model.Kind) (model.Dictionary, error) {
	d, err := s.api.Dictionary(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s dictionary: %w", kind, err)
	}
	s.remember(kind, d)
	s.mu.Lock()
	s.counts[kind] = len(d)
	s.mu.Unlock()
	log.Debug().Str("kind", string(kind)).Int("terms", len(d)).Msg("dictionary loaded")
	return d.Clone(), nil
}

// LoadAll loads both dictionaries.
func (s *Store) LoadAll(ctx context.Context) (correction, protection model.Dictionary, err error) {
	if correction, err = s.Load(ctx, model.KindCorrection); err != nil {
		return nil, nil, err
	}
	if protection, err = s.Load(ctx, model.KindProtection); err != nil {
		return nil, nil, err
	}
	return correction, protection, nil
}

// Snapshot returns a copy of the last loaded dictionary, if any.
func (s *Store) Snapshot(kind model.Kind) (model.Dictionary, bool) {
	raw, ok := s.opts.Cache.Get(s.key(kind))
	if !ok {
		return nil, false
	}
	var d model.Dictionary
	if err := json.Unmarshal(raw, &d); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("dropping unreadable dictionary snapshot")
		_ = s.opts.Cache.Delete(s.key(kind))
		return nil, false
	}
	if d == nil {
		d = model.Dictionary{}
	}
	return d, true
}

// Counts returns the term counts of the last successful loads; unloaded
// kinds count 0. It does not depend on the snapshot cache.
func (s *Store) Counts() (correction, protection int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[model.KindCorrection], s.counts[model.KindProtection]
}

// SaveBulk replaces both dictionaries with two concurrent requests and waits
// for both. If either fails the result is a PartialSaveFailure; the side that
// succeeded stays applied on the server. On success both are reloaded.
func (s *Store) SaveBulk(ctx context.Context, correction, protection model.Dictionary, pin string) (*BulkSave, error) {
	if strings.TrimSpace(pin) == "" {
		return nil, &errs.ValidationError{Field: "pin", Reason: "a PIN is required to save dictionaries"}
	}
	for term := range correction {
		if err := CheckCorrectionTerm(strings.TrimSpace(term)); err != nil {
			return nil, &errs.ValidationError{Field: "correction", Value: term, Reason: err.Error()}
		}
	}

	var (
		wg               sync.WaitGroup
		out              BulkSave
		corrErr, protErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.Correction, corrErr = s.api.SaveDictionary(ctx, model.KindCorrection, pin, withoutBlankKeys(correction))
	}()
	go func() {
		defer wg.Done()
		out.Protection, protErr = s.api.SaveDictionary(ctx, model.KindProtection, pin, protectionSet(protection))
	}()
	wg.Wait()

	if corrErr != nil || protErr != nil {
		// snapshots are stale on whichever side applied
		_ = s.opts.Cache.Delete(s.key(model.KindCorrection))
		_ = s.opts.Cache.Delete(s.key(model.KindProtection))
		return nil, &errs.PartialSaveFailure{Correction: corrErr, Protection: protErr}
	}

	log.Info().Int("correction", out.Correction.Count).Int("protection", out.Protection.Count).Msg("dictionaries saved")

	if _, _, err := s.LoadAll(ctx); err != nil {
		return &out, fmt.Errorf("reload after save: %w", err)
	}
	return &out, nil
}

// MutateTerm validates and sends a single-term command, then reloads the
// affected dictionary. An update of a term the server does not have adds it.
func (s *Store) MutateTerm(ctx context.Context, m model.TermMutation) (*model.MutationResponse, error) {
	m.Term = strings.TrimSpace(m.Term)
	m.Value = strings.TrimSpace(m.Value)
	if err := validateMutation(m); err != nil {
		return nil, err
	}
	if m.Kind == model.KindProtection {
		m.Value = ""
	}

	if m.Action == model.ActionUpdate {
		if d, ok := s.Snapshot(m.Kind); ok {
			if _, exists := d[m.Term]; !exists {
				log.Warn().Str("kind", string(m.Kind)).Str("term", m.Term).Msg("update of unknown term, it will be added")
			}
		}
	}

	resp, err := s.api.UpdateTerm(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s %s term %q: %w", m.Action, m.Kind, m.Term, err)
	}

	if _, err := s.Load(ctx, m.Kind); err != nil {
		return resp, fmt.Errorf("reload after %s: %w", m.Action, err)
	}
	return resp, nil
}

// Search finds terms containing query. A blank query returns two empty
// partitions without contacting the server.
func (s *Store) Search(ctx context.Context, query string, scope model.SearchScope) (model.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return model.EmptySearchResults(), nil
	}
	if scope == "" {
		scope = model.ScopeAll
	}

	if s.opts.SearchMode == model.SearchLocal {
		return s.searchLocal(ctx, query, scope)
	}

	res, err := s.api.Search(ctx, query, scope)
	if err != nil {
		return model.SearchResults{}, fmt.Errorf("search %q: %w", query, err)
	}
	return res, nil
}

func (s *Store) searchLocal(ctx context.Context, query string, scope model.SearchScope) (model.SearchResults, error) {
	dicts := map[model.Kind]model.Dictionary{}
	for _, kind := range model.Kinds {
		if !scope.Includes(kind) {
			continue
		}
		d, ok := s.Snapshot(kind)
		if !ok || s.opts.AlwaysReload {
			var err error
			if d, err = s.Load(ctx, kind); err != nil {
				return model.SearchResults{}, err
			}
		}
		dicts[kind] = d
	}
	return search.Filter(query, scope, dicts[model.KindCorrection], dicts[model.KindProtection]), nil
}

func (s *Store) remember(kind model.Kind, d model.Dictionary) {
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	_ = s.opts.Cache.Set(s.key(kind), raw, s.opts.TTL)
}

func (s *Store) key(kind model.Kind) string {
	return cache.Key(s.opts.Namespace, "dictionary", string(kind))
}

func validateMutation(m model.TermMutation) error {
	if _, err := model.ParseKind(string(m.Kind)); err != nil {
		return &errs.ValidationError{Field: "type", Value: string(m.Kind), Reason: err.Error()}
	}
	if _, err := model.ParseAction(string(m.Action)); err != nil {
		return &errs.ValidationError{Field: "action", Value: string(m.Action), Reason: err.Error()}
	}
	if m.Term == "" {
		return &errs.ValidationError{Field: "term", Reason: "term must not be empty"}
	}
	if strings.TrimSpace(m.PIN) == "" {
		return &errs.ValidationError{Field: "pin", Reason: "a PIN is required to change dictionaries"}
	}
	if m.Kind == model.KindCorrection && m.Action != model.ActionDelete {
		if err := CheckCorrectionTerm(m.Term); err != nil {
			return &errs.ValidationError{Field: "term", Value: m.Term, Reason: err.Error()}
		}
	}
	return nil
}

func withoutBlankKeys(d model.Dictionary) model.Dictionary {
	out := model.Dictionary{}
	for k, v := range d {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = v
		}
	}
	return out
}

func protectionSet(d model.Dictionary) model.Dictionary {
	out := model.Dictionary{}
	for k := range d {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = ""
		}
	}
	return out
}
