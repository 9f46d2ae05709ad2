package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/emberidx/emberidx/internal/merge"
	"github.com/emberidx/emberidx/internal/segment"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// runMerge fuses the given segment files into one fresh segment. Paths must
// be given most-recent first: ties at the same document are resolved in
// favor of whichever listed segment comes earliest.
func runMerge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	configPath := fs.String("config", "configs/development.yaml", "path to config file")
	out := fs.String("out", "", "data directory to write the merged segment into (defaults to the config's index.dataDir)")
	withMetrics := fs.Bool("metrics", false, "serve Prometheus metrics while merging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) < 2 {
		return fmt.Errorf("merge: at least two segment paths are required, most-recent first")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	dataDir := cfg.Index.DataDir
	if *out != "" {
		dataDir = *out
	}

	var m *metrics.Metrics
	if *withMetrics && cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(ctx)
	}

	sources, err := segment.OpenAll(ctx, paths, cfg.Index.OpenConcurrency, m)
	if err != nil {
		return fmt.Errorf("merge: opening source segments: %w", err)
	}
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()

	sess, err := segment.NewSession(cfg.Index.BlockSize, cfg.Index.PostingSkipStep, cfg.Index.TermsSkipStep)
	if err != nil {
		return fmt.Errorf("merge: creating session: %w", err)
	}
	if m != nil {
		sess.SetMetrics(m)
	}

	if err := merge.MergeWithMetrics(sess, sources, m); err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	path, err := sess.Commit(dataDir)
	if err != nil {
		return fmt.Errorf("merge: committing merged segment: %w", err)
	}
	slog.InfoContext(ctx, "segments merged", "path", path, "inputs", len(paths))
	fmt.Println(path)
	return nil
}
