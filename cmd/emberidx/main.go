// Command emberidx builds, merges, and inspects segments of the inverted
// index engine from the command line. It has no long-running server mode:
// every invocation performs one operation against a data directory and
// exits, the way a batch indexing job or an operator's maintenance tool
// would be driven from a shell or a cron entry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	emerrors "github.com/emberidx/emberidx/pkg/errors"
)

// run is the signature every subcommand implements: it owns its own
// flag.FlagSet (including a -config flag, so configs/development.yaml
// remains the default everywhere) and parses args itself.
type run func(ctx context.Context, args []string) error

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	var fn run
	switch sub {
	case "build":
		fn = runBuild
	case "merge":
		fn = runMerge
	case "lookup":
		fn = runLookup
	case "dump":
		fn = runDump
	default:
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, args); err != nil {
		slog.Error("emberidx: command failed", "command", sub, "error", err)
		os.Exit(emerrors.ExitCode(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: emberidx <command> [-config path] [args...]

commands:
  build   -in postings.json -out data/dir       build a new segment from pre-tokenized postings
  merge   -out data/dir seg1.ember seg2.ember... merge segments, most-recent first
  lookup  -term word segment.ember...            print a term's posting list across segments
  dump    segment.ember                          print every term and document in a segment`)
}
