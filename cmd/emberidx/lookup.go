package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/emberidx/emberidx/internal/postings"
	"github.com/emberidx/emberidx/internal/segment"
)

// discardWordSpace satisfies postings.WordSpace for callers that only care
// about the Hit slice MaterializeHits returns, not per-term position sets.
type discardWordSpace struct{}

func (discardWordSpace) Set(uint32, postings.Position) {}

// runLookup prints one term's posting list — document IDs, frequencies, and
// positions — across every listed segment, in the order given.
func runLookup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", "configs/development.yaml", "path to config file")
	term := fs.String("term", "", "term to look up (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *term == "" {
		return fmt.Errorf("lookup: -term is required")
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("lookup: at least one segment path is required")
	}

	if _, err := loadConfig(*configPath); err != nil {
		return err
	}

	for _, path := range paths {
		src, err := segment.Open(path)
		if err != nil {
			return fmt.Errorf("lookup: opening %s: %w", path, err)
		}
		if err := dumpTerm(src, *term); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}
	return nil
}

func dumpTerm(src *segment.Source, term string) error {
	ctx, ok, err := src.Lookup([]byte(term))
	if err != nil {
		return fmt.Errorf("lookup: %s: %w", src.Path(), err)
	}
	if !ok {
		fmt.Printf("%s: %q not found\n", src.Path(), term)
		return nil
	}

	dec, err := src.NewDecoder(ctx)
	if err != nil {
		return fmt.Errorf("lookup: decoding %s: %w", src.Path(), err)
	}
	fmt.Printf("%s: %q (%d documents)\n", src.Path(), term, ctx.DocumentCount)

	doc, err := dec.Begin()
	if err != nil {
		return fmt.Errorf("lookup: %s: %w", src.Path(), err)
	}
	for doc != postings.ExhaustedDocID {
		deleted := src.Deleted().IsDeleted(doc)
		freq := dec.CurrentFrequency()
		hits, err := dec.MaterializeHits(0, discardWordSpace{}, nil)
		if err != nil {
			return fmt.Errorf("lookup: %s: %w", src.Path(), err)
		}
		positions := make([]uint32, len(hits))
		for i, h := range hits {
			positions[i] = uint32(h.Position)
		}
		status := ""
		if deleted {
			status = " (deleted)"
		}
		fmt.Printf("  doc=%d freq=%d positions=%v%s\n", doc, freq, positions, status)

		ok, err := dec.Next()
		if err != nil {
			return fmt.Errorf("lookup: %s: %w", src.Path(), err)
		}
		if !ok {
			break
		}
		doc = dec.CurrentDocument()
	}
	return nil
}
