package sapi

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Peripli/feature-browser/pkg/paging"
	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/pkg/errors"
)

// DecodeItems unmarshals the items of page into values of type T
func DecodeItems[T any](page *paging.Page) ([]T, error) {
	items := make([]T, 0, len(page.Items))
	for i, raw := range page.Items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, errors.Wrapf(err, "error decoding item %d of page", i)
		}
		items = append(items, item)
	}
	return items, nil
}

// NewFetchFunc adapts the listing at path to a pullable.FetchFunc
func NewFetchFunc[T any](client Client, path string, query url.Values) pullable.FetchFunc[T] {
	return func(ctx context.Context, cursor pullable.Cursor) (*pullable.Page[T], error) {
		page, err := client.GetPage(ctx, path, query, cursor)
		if err != nil {
			return nil, err
		}
		items, err := DecodeItems[T](page)
		if err != nil {
			return nil, err
		}

		return &pullable.Page[T]{
			Items: items,
			Next:  page.NextCursor(),
			Last:  page.IsLast(),
			Total: page.Total,
		}, nil
	}
}
