package cli

import (
	"time"

	"github.com/ppiankov/srtctl/internal/api"
	"github.com/ppiankov/srtctl/internal/cache"
	"github.com/ppiankov/srtctl/internal/dictionary"
	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/task"
	"github.com/ppiankov/srtctl/internal/transport"
	"github.com/ppiankov/srtctl/internal/worker"
)

// services wires the client stack for one command.
type services struct {
	cfg   *model.Config
	api   *api.Service
	store *dictionary.Store
}

func newServices(cfg *model.Config) *services {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	client := transport.NewClient(cfg.HTTP, cfg.Server.BaseURL, limiter)
	svc := api.New(client)

	var c cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, time.Minute)
	}

	store := dictionary.NewStore(svc, dictionary.Options{
		Cache:        c,
		TTL:          cfg.Cache.TTL,
		Namespace:    client.BaseURL(),
		SearchMode:   cfg.Search.Mode,
		AlwaysReload: !cfg.Cache.Enabled,
	})

	return &services{cfg: cfg, api: svc, store: store}
}

func (s *services) orchestrator(observer task.Observer) *task.Orchestrator {
	opts := task.OptionsFromConfig(s.cfg.Task)
	opts.Observer = observer
	opts.Counter = s.store
	return task.New(s.api, opts)
}

func (s *services) downloader() *worker.BatchDownloader {
	return worker.NewBatchDownloader(s.api, s.cfg.Concurrency.Workers)
}
