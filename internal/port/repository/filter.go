// Package repository defines the tenant-filtered read contract implemented
// by concrete repositories.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
)

// Result is the outcome of a filtered read.
type Result[E any] struct {
	Items []E
	Err   error
}

// OK reports whether the read succeeded.
func (r Result[E]) OK() bool { return r.Err == nil }

// Unwrap returns the items and error as a pair.
func (r Result[E]) Unwrap() ([]E, error) { return r.Items, r.Err }

// TenantFilter returns every entity scoped to a tenant.
type TenantFilter[E any] interface {
	GetAll(ctx context.Context, t *tenant.Tenant) Result[E]

	// GetAllAsync delivers exactly one Result on the returned channel and
	// then closes it. Cancelling ctx yields a Result carrying ctx.Err().
	GetAllAsync(ctx context.Context, t *tenant.Tenant) <-chan Result[E]
}

// FilterFunc adapts a lookup by tenant id into a TenantFilter.
type FilterFunc[E any] func(ctx context.Context, tenantID uuid.UUID) ([]E, error)

// GetAll runs the lookup for t. A nil tenant fails with domain.ErrNilArgument.
func (f FilterFunc[E]) GetAll(ctx context.Context, t *tenant.Tenant) Result[E] {
	if t == nil {
		return Result[E]{Err: domain.NilArgument("tenant")}
	}
	items, err := f(ctx, t.ID)
	if err != nil {
		return Result[E]{Err: fmt.Errorf("get all for tenant %s: %w", t.ID, err)}
	}
	return Result[E]{Items: items}
}

// GetAllAsync runs the lookup in its own goroutine. If ctx is cancelled
// before the lookup returns, any partial items are discarded.
func (f FilterFunc[E]) GetAllAsync(ctx context.Context, t *tenant.Tenant) <-chan Result[E] {
	out := make(chan Result[E], 1)
	if t == nil {
		out <- Result[E]{Err: domain.NilArgument("tenant")}
		close(out)
		return out
	}

	done := make(chan Result[E], 1)
	go func() {
		done <- f.GetAll(ctx, t)
	}()

	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
			out <- Result[E]{Err: ctx.Err()}
		case res := <-done:
			if err := ctx.Err(); err != nil {
				out <- Result[E]{Err: err}
				return
			}
			out <- res
		}
	}()
	return out
}

// Collect waits for an async result or for ctx to end.
func Collect[E any](ctx context.Context, ch <-chan Result[E]) ([]E, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("collect: %w", domain.ErrInvalidOperation)
		}
		return res.Unwrap()
	}
}
