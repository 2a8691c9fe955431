package sapi

import (
	"context"
	"net/url"

	"github.com/Peripli/feature-browser/pkg/paging"
)

type pager struct {
	client Client
	path   string
	query  url.Values
	cursor string
	done   bool
}

// NewPager returns a paging.Pager walking all pages of the listing at path
func NewPager(client Client, path string, query url.Values) paging.Pager {
	return &pager{
		client: client,
		path:   path,
		query:  query,
	}
}

func (p *pager) Next(ctx context.Context) (*paging.Page, error) {
	page, err := p.client.GetPage(ctx, p.path, p.query, p.cursor)
	if err != nil {
		return nil, err
	}
	if page.IsLast() {
		p.done = true
	} else {
		p.cursor = page.NextCursor()
	}
	return page, nil
}

func (p *pager) HasNext() bool {
	return !p.done
}
