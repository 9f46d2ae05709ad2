package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/emberidx/emberidx/internal/postings"
	"github.com/emberidx/emberidx/internal/segment"
	"github.com/emberidx/emberidx/pkg/metrics"
)

// termInput is one term's posting list as supplied by a tokenizer: a JSON
// array of these is the input format build reads. Frequency is inferred
// from len(Positions) when omitted, since a tokenizer emitting raw
// occurrence offsets has no other natural place to compute it.
type termInput struct {
	Term     string `json:"term"`
	Postings []struct {
		DocID     uint32   `json:"docID"`
		Frequency uint32   `json:"frequency,omitempty"`
		Positions []uint32 `json:"positions"`
	} `json:"postings"`
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", "configs/development.yaml", "path to config file")
	in := fs.String("in", "", "path to a JSON file of pre-tokenized postings (required)")
	out := fs.String("out", "", "data directory to write the new segment into (defaults to the config's index.dataDir)")
	withMetrics := fs.Bool("metrics", false, "serve Prometheus metrics while building")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("build: -in is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	dataDir := cfg.Index.DataDir
	if *out != "" {
		dataDir = *out
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("build: reading %s: %w", *in, err)
	}
	var inputs []termInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return fmt.Errorf("build: parsing %s: %w", *in, err)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Term < inputs[j].Term })

	var m *metrics.Metrics
	if *withMetrics && cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(ctx)
	}

	sess, err := segment.NewSession(cfg.Index.BlockSize, cfg.Index.PostingSkipStep, cfg.Index.TermsSkipStep)
	if err != nil {
		return fmt.Errorf("build: creating session: %w", err)
	}
	if m != nil {
		sess.SetMetrics(m)
	}

	for _, ti := range inputs {
		docs := make([]segment.DocumentPosting, 0, len(ti.Postings))
		for _, p := range ti.Postings {
			freq := p.Frequency
			if freq == 0 {
				freq = uint32(len(p.Positions))
			}
			positions := make([]postings.Position, len(p.Positions))
			for i, pos := range p.Positions {
				positions[i] = postings.Position(pos)
			}
			docs = append(docs, segment.DocumentPosting{
				DocID:     postings.DocID(p.DocID),
				Frequency: freq,
				Positions: positions,
			})
		}
		sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
		if err := sess.AddTerm([]byte(ti.Term), docs); err != nil {
			return fmt.Errorf("build: adding term %q: %w", ti.Term, err)
		}
	}

	path, err := sess.Commit(dataDir)
	if err != nil {
		return fmt.Errorf("build: committing segment: %w", err)
	}
	slog.InfoContext(ctx, "segment built", "path", path, "terms", len(inputs))
	fmt.Println(path)
	return nil
}
