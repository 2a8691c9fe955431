package pullable

import (
	"context"

	"github.com/Peripli/service-manager/pkg/log"
)

// OnScroll pulls the next page when fewer than threshold loaded items remain past scrollIndex.
// Overlapping and exhausted pulls are ignored; every other error is returned.
func (ds *PulledDataSource[T]) OnScroll(ctx context.Context, scrollIndex, threshold int) error {
	if threshold <= 0 {
		threshold = DefaultScrollThreshold
	}
	if ds.Len()-scrollIndex >= threshold {
		return nil
	}
	err := ds.Pull(ctx)
	if err == nil || IsAlreadyPulling(err) || IsExhausted(err) {
		return nil
	}
	return err
}

// Drain pulls until the data source is exhausted. A pull rejected because another one is in flight
// is retried as soon as that one settles. Any other error stops the drain and is returned.
func (ds *PulledDataSource[T]) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := ds.Pull(ctx)
		switch {
		case err == nil:
			continue
		case IsExhausted(err):
			return nil
		case IsAlreadyPulling(err):
			log.C(ctx).Debug("Data source is already pulling, waiting for the pending pull to settle")
			select {
			case <-ds.settled():
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			return err
		}
	}
}
