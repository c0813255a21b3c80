package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/port/repository"
)

func byTenant(data map[uuid.UUID][]string) repository.FilterFunc[string] {
	return func(_ context.Context, id uuid.UUID) ([]string, error) {
		return data[id], nil
	}
}

func TestGetAll(t *testing.T) {
	acme := tenant.New(uuid.New(), "Acme", "https://acme.example")
	beta := tenant.New(uuid.New(), "Beta", "https://beta.example")
	var f repository.TenantFilter[string] = byTenant(map[uuid.UUID][]string{
		acme.ID: {"alice", "bob"},
		beta.ID: {"carol"},
	})

	res := f.GetAll(context.Background(), acme)
	require.True(t, res.OK())
	assert.Equal(t, []string{"alice", "bob"}, res.Items)

	items, err := f.GetAll(context.Background(), beta).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, items)

	items, err = f.GetAll(context.Background(), tenant.New(uuid.New(), "Empty", "https://empty.example")).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetAllNilTenant(t *testing.T) {
	f := byTenant(nil)

	res := f.GetAll(context.Background(), nil)
	assert.ErrorIs(t, res.Err, domain.ErrNilArgument)

	res = <-f.GetAllAsync(context.Background(), nil)
	assert.ErrorIs(t, res.Err, domain.ErrNilArgument)
}

func TestGetAllWrapsLookupError(t *testing.T) {
	boom := errors.New("connection reset")
	f := repository.FilterFunc[int](func(context.Context, uuid.UUID) ([]int, error) {
		return nil, boom
	})

	res := f.GetAll(context.Background(), tenant.New(uuid.New(), "Acme", "https://acme.example"))
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, boom)
}

func TestGetAllAsyncDeliversOnce(t *testing.T) {
	acme := tenant.New(uuid.New(), "Acme", "https://acme.example")
	f := byTenant(map[uuid.UUID][]string{acme.ID: {"alice"}})

	ch := f.GetAllAsync(context.Background(), acme)
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"alice"}, res.Items)

	_, ok = <-ch
	assert.False(t, ok, "channel should be closed after the single result")
}

func TestGetAllAsyncCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	seen := make(chan context.Context, 1)
	f := repository.FilterFunc[string](func(ctx context.Context, _ uuid.UUID) ([]string, error) {
		seen <- ctx
		<-release
		return []string{"partial"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.GetAllAsync(ctx, tenant.New(uuid.New(), "Acme", "https://acme.example"))

	inner := <-seen
	cancel()

	select {
	case res := <-ch:
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Nil(t, res.Items, "partial items must be discarded")
	case <-time.After(time.Second):
		t.Fatal("cancellation did not complete the async read")
	}
	assert.ErrorIs(t, inner.Err(), context.Canceled, "cancellation should reach the lookup")
}

func TestCollect(t *testing.T) {
	acme := tenant.New(uuid.New(), "Acme", "https://acme.example")
	f := byTenant(map[uuid.UUID][]string{acme.ID: {"alice"}})

	items, err := repository.Collect(context.Background(), f.GetAllAsync(context.Background(), acme))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, items)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repository.Collect(ctx, make(chan repository.Result[string]))
	assert.ErrorIs(t, err, context.Canceled)
}
