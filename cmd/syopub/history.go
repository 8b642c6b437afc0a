package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fwojciec/syopub"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if c.RunID != "" {
		return c.showRun(deps)
	}

	filter := syopub.RunFilter{Limit: c.Limit, Offset: c.Offset}
	if c.Root != "" {
		filter.Root = &c.Root
	}
	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded. Use 'syopub publish' to start one.")
		return nil
	}

	t := newTable(deps.Stdout)
	t.AppendHeader(table.Row{"Run", "Root", "Started", "Duration", "Books", "Failed"})
	for _, r := range runs {
		duration := "running"
		if r.Finished() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		t.AppendRow(table.Row{r.ID, r.Root, r.StartedAt.Local().Format(time.DateTime), duration, r.Books, r.Failed})
	}
	t.Render()
	return nil
}

func (c *HistoryCmd) showRun(deps *Dependencies) error {
	run, err := deps.Runs.FindRunByID(deps.Ctx, c.RunID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
		return err
	}
	books, err := deps.Runs.FindBookResults(deps.Ctx, run.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run %s  %s  started %s\n", run.ID, run.Root, run.StartedAt.Local().Format(time.DateTime))

	t := newTable(deps.Stdout)
	t.AppendHeader(table.Row{"Book", "Title", "Book ID", "State", "Chapter", "Draft", "Chapter State", "Error"})
	for _, b := range books {
		t.AppendRow(table.Row{filepath.Base(b.Dir), b.Title, b.BookID, b.State, "", "", "", syopub.ErrorMessage(b.Err)})
		for _, ch := range b.Chapters {
			t.AppendRow(table.Row{"", "", "", "", ch.Source, ch.DraftID, ch.State, syopub.ErrorMessage(ch.Err)})
		}
	}
	t.Render()
	return nil
}
