package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/syopub"
	"github.com/fwojciec/syopub/fs"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the list command. Nothing is sent to the site.
func (c *ListCmd) Run(deps *Dependencies) error {
	root := rootOrDefault(c.Root, deps.Config)

	dirs, err := deps.Source.Discover(deps.Ctx, root)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
		return err
	}
	if len(dirs) == 0 {
		fmt.Fprintf(deps.Stdout, "No books found in %s\n", root)
		return nil
	}

	var failed int
	for _, dir := range dirs {
		book, err := deps.Source.Load(deps.Ctx, dir)
		if err != nil {
			failed++
			fmt.Fprintf(deps.Stderr, "error: %s\n", syopub.ErrorMessage(err))
			continue
		}

		fmt.Fprintf(deps.Stdout, "%s  %s\n", filepath.Base(dir), book.Title)
		if r, err := fs.ReadReceipt(dir); err == nil {
			fmt.Fprintf(deps.Stdout, "  already published as %s on %s\n", r.BookID, r.PublishedAt.Format("2006-01-02"))
		}

		t := newTable(deps.Stdout)
		t.AppendHeader(table.Row{"#", "File", "Title", "Chars", "Action"})
		var publishable int
		for _, ch := range book.Chapters {
			action := "draft only"
			if ch.Publishable() {
				action = "publish"
				publishable++
			}
			t.AppendRow(table.Row{ch.Index, ch.Source, ch.Title, ch.Chars(), action})
		}
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d/%d publish", publishable, len(book.Chapters))})
		t.Render()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d books could not be loaded", failed, len(dirs))
	}
	return nil
}
