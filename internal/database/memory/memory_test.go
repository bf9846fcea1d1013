package memory_test

import (
	"context"
	"testing"

	databaseerrors "cartstore/internal/database"
	"cartstore/internal/database/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_GetMissing(t *testing.T) {
	s := memory.New()

	_, err := s.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, databaseerrors.ErrNotFound)
}

func TestStorage_SetGet(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "cart", []byte(`[{"id":"a"}]`)))

	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	_, err = s.Get(ctx, "cart:other")
	assert.ErrorIs(t, err, databaseerrors.ErrNotFound)
}

func TestStorage_ValuesAreCopied(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	value := []byte(`[]`)
	require.NoError(t, s.Set(ctx, "cart", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	got[0] = 'y'
	again, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(again))
}

func TestStorage_ContextCanceled(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "cart")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, "cart", []byte(`[]`)), context.Canceled)
}
