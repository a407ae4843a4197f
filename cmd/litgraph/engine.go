package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/litgraph/litgraph/internal/citation"
	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/hooks"
	"github.com/litgraph/litgraph/internal/pipeline"
	"github.com/litgraph/litgraph/internal/processor"
	"github.com/litgraph/litgraph/internal/processor/arxiv"
	"github.com/litgraph/litgraph/internal/processor/crossref"
	"github.com/litgraph/litgraph/internal/processor/pagemeta"
	"github.com/litgraph/litgraph/internal/processor/pubmed"
	"github.com/litgraph/litgraph/internal/processor/s2"
	"github.com/litgraph/litgraph/internal/store"
	"github.com/litgraph/litgraph/internal/waterfall"
)

// openRepo locates the repository, loads its config, and opens the
// database, exiting through the standard error path on any failure.
func openRepo() (string, *config.Config, *store.DB) {
	root, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(root)
	if err != nil {
		// The globally configured default repository catches commands run
		// outside any repository tree.
		if fallback := config.GetDefaultRepo(); fallback != "" && config.IsRepository(fallback) {
			repoRoot = fallback
		} else {
			exitWithError(ExitConfigError, "%v", err)
		}
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	db, err := store.Open(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return repoRoot, cfg, db
}

// newCitationResolver builds the citation resolver over an open database.
func newCitationResolver(db *store.DB, log *zap.Logger) *citation.Resolver {
	return citation.New(db, log)
}

// newPipeline assembles the full resolution engine: every metadata source
// in priority order, the waterfall executor, and the hook dispatcher.
func newPipeline(cfg *config.Config, db *store.DB, log *zap.Logger) (*pipeline.Pipeline, error) {
	s2Opts := []s2.Option{}
	if cfg.S2APIKey != "" {
		s2Opts = append(s2Opts, s2.WithAPIKey(cfg.S2APIKey))
	}

	registry, err := processor.NewRegistry(
		crossref.New(log),
		arxiv.New(log),
		s2.New(log, s2Opts...),
		pubmed.New(log),
		pagemeta.New(log),
	)
	if err != nil {
		return nil, err
	}

	execOpts := []waterfall.Option{}
	if cfg.MaxAttempts > 0 {
		execOpts = append(execOpts, waterfall.WithMaxAttempts(cfg.MaxAttempts))
	}
	exec := waterfall.New(registry, log, execOpts...)

	dispatcher := hooks.NewDefaultDispatcher(db, newCitationResolver(db, log), log)

	pipeOpts := []pipeline.Option{}
	if len(cfg.FastHosts) > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithFastHosts(cfg.FastHosts))
	}
	return pipeline.New(db, exec, dispatcher, log, pipeOpts...), nil
}
