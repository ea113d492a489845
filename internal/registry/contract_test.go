package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

// runStoreContract exercises the behavior every Store backend must share.
// newStore must return a store over empty storage.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("fresh store loads empty", func(t *testing.T) {
		s := newStore(t)

		reg, err := s.Load(ctx)
		require.NoError(t, err)
		assert.NotNil(t, reg)
		assert.Empty(t, reg)
	})

	t.Run("save then load round trip", func(t *testing.T) {
		s := newStore(t)
		want := Registry{"abc123": "https://a.com", "x": "https://b.com/?a=1&b=2"}

		require.NoError(t, s.Save(ctx, want))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Save(ctx, Registry{"a": "1", "b": "2"}))
		require.NoError(t, s.Save(ctx, Registry{"c": "3"}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, Registry{"c": "3"}, got)
	})

	t.Run("update applies inserts and keeps existing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, Registry{"a": "1"}))

		err := s.Update(ctx, func(reg Registry) error {
			assert.Equal(t, "1", reg["a"])
			reg["b"] = "2"
			return nil
		})
		require.NoError(t, err)

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, Registry{"a": "1", "b": "2"}, got)
	})

	t.Run("update rejection leaves store unchanged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, Registry{"a": "1"}))

		reject := errx.E("test", errx.Conflict, errors.New("taken"))
		err := s.Update(ctx, func(reg Registry) error {
			reg["b"] = "2"
			return reject
		})
		require.ErrorIs(t, err, reject)
		assert.Equal(t, errx.Conflict, errx.KindOf(err))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, Registry{"a": "1"}, got)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		s := newStore(t)

		const writers = 20
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, func(reg Registry) error {
					reg[fmt.Sprintf("c%02d", i)] = "https://example.com"
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, writers)
	})

	t.Run("only one of two claims on the same code wins", func(t *testing.T) {
		s := newStore(t)

		claim := func(url string) error {
			return s.Update(ctx, func(reg Registry) error {
				if reg.Has("same") {
					return errx.E("test", errx.Conflict, errors.New("taken"))
				}
				reg["same"] = url
				return nil
			})
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, url := range []string{"https://one.com", "https://two.com"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = claim(url)
			}()
		}
		wg.Wait()

		conflicts := 0
		for _, err := range errs {
			if errx.Is(err, errx.Conflict) {
				conflicts++
			} else {
				assert.NoError(t, err)
			}
		}
		assert.Equal(t, 1, conflicts)
	})
}

func TestFileStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return newTestFileStore(t)
	})
}
