package mock

import (
	"context"

	"github.com/fwojciec/syopub"
)

var _ syopub.BookSource = (*BookSource)(nil)

// BookSource is a mock implementation of syopub.BookSource.
type BookSource struct {
	DiscoverFn func(ctx context.Context, root string) ([]string, error)
	LoadFn     func(ctx context.Context, dir string) (*syopub.Book, error)
}

func (s *BookSource) Discover(ctx context.Context, root string) ([]string, error) {
	return s.DiscoverFn(ctx, root)
}

func (s *BookSource) Load(ctx context.Context, dir string) (*syopub.Book, error) {
	return s.LoadFn(ctx, dir)
}
