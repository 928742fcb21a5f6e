package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/newsradar/internal/store"
	"github.com/finwatch/newsradar/pkg/alert"
	"github.com/finwatch/newsradar/pkg/feed"
	"github.com/finwatch/newsradar/pkg/pipeline"
)

// Scheduler runs periodic collection and pipeline analysis.
type Scheduler struct {
	store      store.Store
	sources    []feed.Source
	pipe       *pipeline.Pipeline
	alertMgr   *alert.Manager
	collectInt time.Duration
	analyzeInt time.Duration
	minScore   float64
	log        zerolog.Logger

	// alerted tracks clusters already notified in this process, keyed by
	// the first member's URL. Derived tables are replaced every run, so
	// there is no persistent alert state to consult.
	alerted map[string]bool
}

// New creates a new scheduler.
func New(
	s store.Store,
	sources []feed.Source,
	pipe *pipeline.Pipeline,
	alertMgr *alert.Manager,
	collectInt, analyzeInt time.Duration,
	minScore float64,
	log zerolog.Logger,
) *Scheduler {
	if collectInt == 0 {
		collectInt = 15 * time.Minute
	}
	if analyzeInt == 0 {
		analyzeInt = 30 * time.Minute
	}
	return &Scheduler{
		store:      s,
		sources:    sources,
		pipe:       pipe,
		alertMgr:   alertMgr,
		collectInt: collectInt,
		analyzeInt: analyzeInt,
		minScore:   minScore,
		log:        log,
		alerted:    make(map[string]bool),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := time.NewTicker(s.collectInt)
	analyzeTicker := time.NewTicker(s.analyzeInt)
	defer collectTicker.Stop()
	defer analyzeTicker.Stop()

	// Run immediately on start.
	s.collectAll(ctx)
	s.analyzeAndAlert(ctx)

	s.log.Info().
		Stringer("collect_every", s.collectInt).
		Stringer("analyze_every", s.analyzeInt).
		Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-collectTicker.C:
			s.collectAll(ctx)
		case <-analyzeTicker.C:
			s.analyzeAndAlert(ctx)
		}
	}
}

func (s *Scheduler) collectAll(ctx context.Context) {
	total := 0
	for _, src := range s.sources {
		articles, err := src.Collect(ctx)
		if err != nil {
			s.log.Warn().Str("source", src.Name()).Err(err).Msg("collect failed")
			continue
		}

		saved, err := s.store.SaveArticles(ctx, articles)
		if err != nil {
			s.log.Warn().Str("source", src.Name()).Err(err).Msg("save failed")
			continue
		}

		s.log.Info().Str("source", src.Name()).
			Int("fetched", len(articles)).Int("new", saved).
			Msg("collected")
		total += saved
	}
	s.log.Info().Int("new_articles", total).Msg("collection pass done")
}

func (s *Scheduler) analyzeAndAlert(ctx context.Context) {
	articles, err := s.store.ListArticles(ctx, store.ListOpts{})
	if err != nil {
		s.log.Error().Err(err).Msg("load articles failed")
		return
	}

	clusters, ranked, err := s.pipe.Run(ctx, articles)
	if err != nil {
		s.log.Error().Err(err).Msg("pipeline run failed")
		return
	}

	if err := s.store.ReplaceResults(ctx, clusters, ranked); err != nil {
		s.log.Error().Err(err).Msg("replace results failed")
		return
	}

	s.log.Info().Int("articles", len(articles)).
		Int("clusters", len(clusters)).Int("ranked", len(ranked)).
		Msg("analysis pass done")

	if !s.alertMgr.HasNotifiers() {
		return
	}

	byID := make(map[int]pipeline.Cluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}

	for _, h := range ranked {
		if h.Score < s.minScore {
			continue
		}
		c, ok := byID[h.ClusterID]
		if !ok || len(c.Members) == 0 {
			continue
		}

		key := c.Members[0].URL
		if s.alerted[key] {
			continue
		}

		var members []feed.Article
		sources := make(map[string]struct{})
		for _, m := range c.Members {
			members = append(members, m.Article)
			sources[m.Source] = struct{}{}
		}
		var sourceNames []string
		for name := range sources {
			sourceNames = append(sourceNames, name)
		}
		sort.Strings(sourceNames)

		n := &alert.Notification{
			Title:    h.RepresentativeTitle,
			Body:     fmt.Sprintf("Story covered by %d sources with hotness %.2f", len(sourceNames), h.Score),
			Score:    h.Score,
			Sources:  sourceNames,
			Articles: members,
		}

		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.log.Warn().Str("title", h.RepresentativeTitle).Err(err).Msg("alert failed")
			continue
		}

		s.alerted[key] = true
		s.log.Info().Str("title", h.RepresentativeTitle).Float64("score", h.Score).Msg("alerted")
	}
}
