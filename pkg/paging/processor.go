package paging

import (
	"context"

	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
)

// Pager walks the pages of a listing
type Pager interface {
	// Next fetches the following page
	Next(context.Context) (*Page, error)

	// HasNext reports whether Next can fetch another page
	HasNext() bool
}

// ProcessFunc is called for every page the PageProcessor fetches
type ProcessFunc func(*Page) error

// PageProcessor feeds all pages of a Pager to a ProcessFunc
type PageProcessor struct {
	Pager Pager
}

// Process fetches pages until the Pager has no more of them, the ProcessFunc fails or ctx is done
func (p *PageProcessor) Process(ctx context.Context, fn ProcessFunc) error {
	for p.Pager.HasNext() {
		select {
		case <-ctx.Done():
			log.C(ctx).Info("Page processing cancelled")
			return ctx.Err()
		default:
		}

		page, err := p.Pager.Next(ctx)
		if err != nil {
			return errors.Wrap(err, "error during page fetch")
		}

		if err := fn(page); err != nil {
			return err
		}
	}

	return nil
}
