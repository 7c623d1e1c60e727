package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"winelens/internal/config"
	"winelens/internal/logging"
	"winelens/internal/matchindex"
	"winelens/internal/matching"
	"winelens/internal/search"
	"winelens/internal/sessionstore"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// app bundles what the scan, session, and cache commands share.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	index    *matchindex.Index
	matcher  *matching.Orchestrator
	sessions *sessionstore.Store
}

func (s *app) Close() error {
	var firstErr error
	if err := s.index.Checkpoint(); err != nil {
		firstErr = err
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openServices loads the match index, wires the matcher, and optionally opens
// the session database.
func (c *commandContext) openServices(withSessions bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	index := matchindex.New(cfg.IndexSnapshotPath(), logger, matchindex.WithFuzzyFloor(cfg.Matching.FuzzyFloor))
	client, err := search.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("search client: %w", err)
	}
	var searcher search.Searcher
	if client != nil {
		searcher = search.NewCached(client)
	}
	svc := &app{
		cfg:     cfg,
		logger:  logger,
		index:   index,
		matcher: matching.New(index, searcher, matching.PolicyFromConfig(cfg), logger),
	}
	if withSessions {
		store, err := sessionstore.Open(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		svc.sessions = store
	}
	return svc, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
