package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndLoad(t *testing.T) {
	s := New[types.Feedback](store.KindFeedback)
	ctx := context.Background()

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	updated, err := s.Append(ctx, types.Feedback{Text: "nice"}, store.AppendPolicy[types.Feedback]{})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	// Mutating a returned slice does not leak into the store.
	updated[0].Text = "changed"
	records, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nice", records[0].Text)
	assert.Nil(t, s.Paths())
}

func TestStore_TruncateAndValidate(t *testing.T) {
	s := New(store.KindVisitor, types.Visitor{Name: "a"}, types.Visitor{Name: "b"})
	ctx := context.Background()

	_, err := s.Append(ctx, types.Visitor{Name: "c"}, store.AppendPolicy[types.Visitor]{MaxRecords: 2})
	require.NoError(t, err)

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Visitor{{Name: "b"}, {Name: "c"}}, records)

	_, err = s.Append(ctx, types.Visitor{Name: "d"}, store.AppendPolicy[types.Visitor]{
		Validate: func(existing []types.Visitor, record types.Visitor) error {
			return fmt.Errorf("%w: rejected", store.ErrValidation)
		},
	})
	assert.ErrorIs(t, err, store.ErrValidation)

	records, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_FailWith(t *testing.T) {
	s := New[types.Visitor](store.KindVisitor)
	boom := errors.New("boom")
	s.FailWith(boom)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrStoreIO)
	assert.ErrorIs(t, err, boom)

	s.FailWith(nil)
	_, err = s.Load(context.Background())
	assert.NoError(t, err)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := New[types.Visitor](store.KindVisitor)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(context.Background(), types.Visitor{Name: fmt.Sprintf("v%d", i)}, store.AppendPolicy[types.Visitor]{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 50)
}
