// Package common builds the dependency graph shared by the CLI commands:
// configuration, logging, fetching, the LLM and search capabilities, the
// analysis engine, and the in-memory stores.
package common

import (
	"context"
	"fmt"

	"github.com/rivalscan/rivalscan/internal/analysis"
	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/discovery"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/llm"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/monitor"
	"github.com/rivalscan/rivalscan/internal/robots"
	"github.com/rivalscan/rivalscan/internal/search"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
)

// noopSearcher stands in when no search API key is configured.
type noopSearcher struct{}

func (noopSearcher) Search(context.Context, string, search.Mode) ([]search.Result, error) {
	return nil, nil
}

// Deps holds the wired dependency graph for one command invocation.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Pages     *fetcher.Client
	Robots    *robots.Reader
	Completer llm.Client
	Searcher  search.Searcher

	Engine      *analysis.Engine
	Monitor     *monitor.Monitor
	Discovery   *discovery.Orchestrator
	TaskStore   *memory.TaskStore
	Competitors *memory.CompetitorStore
	PriceStore  *memory.PriceHistoryStore
}

// New loads configuration and wires every component.
func New(cfgFile string) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	pages := fetcher.NewClient(cfg.Crawler, log)
	robotsReader := robots.NewReader(nil, cfg.Crawler.UserAgent)

	// The LLM and search capabilities are optional: without keys the
	// pipeline runs on its deterministic fallbacks.
	var completer llm.Client
	if cfg.LLM.APIKey != "" {
		completer = llm.NewHTTPClient(cfg.LLM)
	} else {
		log.Warn("No LLM API key configured, using deterministic fallbacks")
	}

	var searcher search.Searcher
	if cfg.Search.APIKey != "" {
		searcher = search.NewHTTPSearcher(cfg.Search)
	} else {
		log.Warn("No search API key configured, discovery will find nothing")
		searcher = noopSearcher{}
	}

	taskStore := memory.NewTaskStore()
	competitors := memory.NewCompetitorStore()
	priceStore := memory.NewPriceHistoryStore()

	engine := analysis.NewEngine(pages, completer, robotsReader, cfg.Matching, log)
	mon := monitor.New(pages, engine, priceStore, log)
	disc := discovery.New(pages, completer, searcher, engine, competitors, cfg.Discovery, log)

	return &Deps{
		Config:      cfg,
		Logger:      log,
		Pages:       pages,
		Robots:      robotsReader,
		Completer:   completer,
		Searcher:    searcher,
		Engine:      engine,
		Monitor:     mon,
		Discovery:   disc,
		TaskStore:   taskStore,
		Competitors: competitors,
		PriceStore:  priceStore,
	}, nil
}
