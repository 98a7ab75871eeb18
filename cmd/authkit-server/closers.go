package main

import (
	"context"
	"errors"
	"time"
)

// closers collects shutdown functions as resources come up.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) { *c = append(*c, fn) }

// close runs every collected function in reverse order, even after ctx is
// cancelled, and joins their errors.
func (c closers) close(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	errs := make([]error, 0, len(c))
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i](ctx))
	}
	return errors.Join(errs...)
}
