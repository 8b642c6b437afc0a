package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/syopub"
	"github.com/pelletier/go-toml/v2"
)

// ReceiptFile is written into a book directory once the book exists on the
// site.
const ReceiptFile = "publication.toml"

// Receipt records where a book was published.
type Receipt struct {
	BookID      string           `toml:"book_id"`
	Title       string           `toml:"title"`
	State       string           `toml:"state"`
	PublishedAt time.Time        `toml:"published_at"`
	Chapters    []ChapterReceipt `toml:"chapters"`
}

// ChapterReceipt records the draft created for one chapter.
type ChapterReceipt struct {
	Source      string `toml:"source"`
	DraftID     string `toml:"draft_id"`
	State       string `toml:"state"`
	ContentHash string `toml:"content_hash"`
}

// NewReceipt builds a receipt from a book result.
func NewReceipt(result *syopub.BookResult, at time.Time) *Receipt {
	r := &Receipt{
		BookID:      result.BookID,
		Title:       result.Title,
		State:       result.State.String(),
		PublishedAt: at.UTC().Truncate(time.Second),
	}
	for _, c := range result.Chapters {
		r.Chapters = append(r.Chapters, ChapterReceipt{
			Source:      c.Source,
			DraftID:     c.DraftID,
			State:       c.State.String(),
			ContentHash: c.ContentHash,
		})
	}
	return r
}

// WriteReceipt writes r into dir. The file is written to a temporary name
// and renamed into place so a reader never sees a partial receipt.
func WriteReceipt(dir string, r *Receipt) error {
	if r.BookID == "" {
		return syopub.Errorf(syopub.EINVALID, "receipt for %s: book id required", dir)
	}
	data, err := toml.Marshal(r)
	if err != nil {
		return syopub.Errorf(syopub.ESTORAGE, "encode receipt for %s: %v", dir, err)
	}

	final := filepath.Join(dir, ReceiptFile)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return syopub.Errorf(syopub.ESTORAGE, "write receipt %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return syopub.Errorf(syopub.ESTORAGE, "write receipt %s: %v", final, err)
	}
	return nil
}

// ReadReceipt reads the receipt in dir. It returns ENOTFOUND when the book
// has never been published.
func ReadReceipt(dir string) (*Receipt, error) {
	path := filepath.Join(dir, ReceiptFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, syopub.Errorf(syopub.ENOTFOUND, "no receipt in %s", dir)
	}
	if err != nil {
		return nil, syopub.Errorf(syopub.ESTORAGE, "read receipt %s: %v", path, err)
	}

	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, syopub.Errorf(syopub.ESTORAGE, "parse receipt %s: %v", path, err)
	}
	return &r, nil
}
