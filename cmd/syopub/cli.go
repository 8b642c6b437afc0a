package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/publish"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config syopub.Config

	Source       syopub.BookSource
	Orchestrator *publish.Orchestrator
	Runs         syopub.RunService

	// Now stamps publication receipts.
	Now func() time.Time
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"C" default:"config.toml" type:"path" help:"Configuration file"`
	Env     string `default:".env" type:"path" help:"Environment file with credentials"`
	Verbose bool   `short:"v" help:"Log every request"`

	Publish PublishCmd `cmd:"" help:"Publish books to the site"`
	List    ListCmd    `cmd:"" help:"Show what a publish run would submit"`
	History HistoryCmd `cmd:"" help:"Show past publication runs"`
}

// PublishCmd is the "publish" subcommand.
type PublishCmd struct {
	Root          string `arg:"" optional:"" help:"Data directory holding one directory per book (default: data_dir)"`
	Book          string `short:"b" help:"Publish only this book directory"`
	Concurrency   int    `short:"c" help:"Books published at once; 0 uses the configured value, which defaults to all"`
	NoLedger      bool   `help:"Do not record the run in the ledger"`
	SkipPublished bool   `help:"Skip books that already have a publication receipt"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Root string `arg:"" optional:"" help:"Data directory holding one directory per book (default: data_dir)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	RunID  string `arg:"" optional:"" help:"Show the books of one run"`
	Root   string `help:"Only list runs over this data directory"`
	Limit  int    `short:"n" default:"20" help:"Number of runs to list"`
	Offset int    `help:"Skip this many of the most recent runs"`
}

func rootOrDefault(root string, cfg syopub.Config) string {
	if root != "" {
		return root
	}
	return cfg.DataDir
}
