package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/emberidx/emberidx/internal/segment"
)

// runDump walks every term in a segment's dictionary in ascending order and
// prints its posting list, for offline inspection of a committed segment.
func runDump(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	configPath := fs.String("config", "configs/development.yaml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("dump: at least one segment path is required")
	}

	if _, err := loadConfig(*configPath); err != nil {
		return err
	}

	for _, path := range paths {
		src, err := segment.Open(path)
		if err != nil {
			return fmt.Errorf("dump: opening %s: %w", path, err)
		}
		if err := dumpSegment(src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}
	return nil
}

func dumpSegment(src *segment.Source) error {
	fmt.Printf("%s: %d terms, %d documents, %d deleted\n", src.Path(), src.TermCount(), src.DocumentCount(), src.Deleted().Count())

	cur, err := src.TermsCursor()
	if err != nil {
		return fmt.Errorf("dump: %s: %w", src.Path(), err)
	}
	for !cur.Done() {
		term, _ := cur.Current()
		if err := dumpTerm(src, string(term)); err != nil {
			return err
		}
		ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("dump: %s: %w", src.Path(), err)
		}
		if !ok {
			break
		}
	}
	return nil
}
