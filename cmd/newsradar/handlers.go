package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/finwatch/newsradar/internal/config"
	"github.com/finwatch/newsradar/internal/scheduler"
	"github.com/finwatch/newsradar/internal/store"
	"github.com/finwatch/newsradar/pkg/alert"
	"github.com/finwatch/newsradar/pkg/export"
	"github.com/finwatch/newsradar/pkg/feed"
	"github.com/finwatch/newsradar/pkg/pipeline"
	"github.com/finwatch/newsradar/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func buildSources(cfg *config.Config, log zerolog.Logger) []feed.Source {
	feeds := make([]feed.Feed, len(cfg.Feeds.Sources))
	for i, f := range cfg.Feeds.Sources {
		feeds[i] = feed.Feed{Name: f.Name, URL: f.URL}
	}

	var filter *feed.Filter
	if len(cfg.Feeds.Filter.IncludeKeywords) > 0 || len(cfg.Feeds.Filter.ExcludeKeywords) > 0 {
		filter = feed.NewFilter(cfg.Feeds.Filter.IncludeKeywords, cfg.Feeds.Filter.ExcludeKeywords)
	}

	return []feed.Source{feed.NewRSS(feeds, filter, cfg.Feeds.TitleLength, log)}
}

func buildPipeline(cfg *config.Config, log zerolog.Logger) (*pipeline.Pipeline, error) {
	return pipeline.New(cfg.PipelineConfig(), log)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runCollect() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	total := 0

	for _, src := range buildSources(cfg, log) {
		articles, err := src.Collect(ctx)
		if err != nil {
			log.Warn().Str("source", src.Name()).Err(err).Msg("collect failed")
			continue
		}

		saved, err := db.SaveArticles(ctx, articles)
		if err != nil {
			log.Warn().Str("source", src.Name()).Err(err).Msg("save failed")
			continue
		}

		log.Info().Str("source", src.Name()).
			Int("fetched", len(articles)).Int("new", saved).
			Msg("collected")
		total += saved
	}

	log.Info().Int("new_articles", total).Msg("collection done")
	return nil
}

// analyze loads the full article snapshot, runs the pipeline, and replaces
// the derived tables.
func analyze(ctx context.Context, db store.Store, pipe *pipeline.Pipeline) ([]pipeline.Cluster, []pipeline.HotnessScore, error) {
	articles, err := db.ListArticles(ctx, store.ListOpts{})
	if err != nil {
		return nil, nil, fmt.Errorf("load articles: %w", err)
	}

	clusters, ranked, err := pipe.Run(ctx, articles)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline run: %w", err)
	}

	if err := db.ReplaceResults(ctx, clusters, ranked); err != nil {
		return nil, nil, fmt.Errorf("replace results: %w", err)
	}
	return clusters, ranked, nil
}

func runAnalyze() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	clusters, ranked, err := analyze(context.Background(), db, pipe)
	if err != nil {
		return err
	}

	log.Info().Int("clusters", len(clusters)).Int("ranked", len(ranked)).Msg("analysis done")
	return nil
}

func runHot(jsonOutput bool, limit int, csvPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, _, err := analyze(ctx, db, pipe); err != nil {
		return err
	}

	rows, err := db.ListHotness(ctx)
	if err != nil {
		return fmt.Errorf("list hotness: %w", err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv %s: %w", csvPath, err)
		}
		defer f.Close()
		if err := export.WriteHotnessCSV(f, rows); err != nil {
			return fmt.Errorf("write csv %s: %w", csvPath, err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no stories ranked yet (try collecting first: newsradar collect)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tCLUSTER\tTITLE")
	for _, h := range rows {
		fmt.Fprintf(w, "%d\t%.3f\t%d\t%s\n", h.Position+1, h.Score, h.ClusterID, h.RepresentativeTitle)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(db, pipe, buildSources(cfg, log), port, log)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pipe, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	sources := buildSources(cfg, log)
	alertMgr := buildAlertManager(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(db, sources, pipe, alertMgr,
		cfg.Schedule.ParseCollectInterval(),
		cfg.Schedule.ParseAnalyzeInterval(),
		cfg.Alerts.MinScore,
		log,
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scheduler error")
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
	}()

	srv := server.New(db, pipe, sources, port, log)
	return srv.ListenAndServe()
}
