package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/fs"
	"github.com/fwojciec/syopub/publish"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Run executes the publish command.
func (c *PublishCmd) Run(deps *Dependencies) error {
	root := rootOrDefault(c.Root, deps.Config)

	var dirs []string
	if c.Book != "" {
		root = filepath.Dir(c.Book)
		dirs = []string{c.Book}
	} else {
		found, err := deps.Source.Discover(deps.Ctx, root)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
			return err
		}
		dirs = found
	}

	if c.SkipPublished {
		dirs = unpublished(dirs, deps.Stdout)
	}
	if len(dirs) == 0 {
		fmt.Fprintf(deps.Stdout, "No books to publish in %s\n", root)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Publishing %d books from %s\n", len(dirs), root)
	report := deps.Orchestrator.RunDirs(deps.Ctx, root, dirs, progressPrinter(deps))

	for _, b := range report.Books {
		if b.BookID == "" {
			continue
		}
		if err := fs.WriteReceipt(b.Dir, fs.NewReceipt(b, deps.Now())); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: %s\n", syopub.ErrorMessage(err))
		}
	}

	renderReport(deps.Stdout, report)

	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d books failed: %w", n, len(report.Books), report.Err())
	}
	return nil
}

// unpublished drops directories holding a publication receipt.
func unpublished(dirs []string, w io.Writer) []string {
	var out []string
	for _, dir := range dirs {
		if r, err := fs.ReadReceipt(dir); err == nil {
			fmt.Fprintf(w, "  skip %s: already published as %s\n", dir, r.BookID)
			continue
		}
		out = append(out, dir)
	}
	return out
}

func progressPrinter(deps *Dependencies) publish.ProgressFunc {
	return func(event publish.ProgressEvent) {
		switch event.Type {
		case publish.ProgressBookStarted:
			fmt.Fprintf(deps.Stdout, "  start %s\n", event.Dir)
		case publish.ProgressChapterFinished:
			ch := event.Chapter
			if event.Error != nil {
				fmt.Fprintf(deps.Stderr, "  fail  %s/%s: %v\n", event.Dir, ch.Source, event.Error)
				return
			}
			fmt.Fprintf(deps.Stdout, "    %-9s %s %s\n", ch.State, ch.Source, ch.Title)
		case publish.ProgressBookFinished:
			b := event.Book
			if event.Error != nil {
				fmt.Fprintf(deps.Stderr, "  fail  %s: %v\n", event.Dir, event.Error)
				return
			}
			fmt.Fprintf(deps.Stdout, "  done  %s (ncode %s, %d/%d chapters published)\n",
				event.Dir, b.BookID, b.Published(), len(b.Chapters))
		case publish.ProgressLedgerFailed:
			fmt.Fprintf(deps.Stderr, "warning: ledger: %v\n", event.Error)
		}
	}
}

func renderReport(w io.Writer, report *syopub.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Book", "Title", "Book ID", "State", "Published", "Drafts", "Error"})
	for _, b := range report.Books {
		t.AppendRow(table.Row{
			filepath.Base(b.Dir), b.Title, b.BookID, b.State,
			b.Published(), len(b.Chapters), syopub.ErrorMessage(b.Err),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "",
		fmt.Sprintf("%d ok, %d failed", report.Succeeded(), report.Failed())})
	t.Render()
	if report.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", report.RunID)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.SetOutputMirror(w)
	return t
}
