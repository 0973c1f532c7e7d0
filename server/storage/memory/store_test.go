package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRule(days ...time.Weekday) recurrence.Rule {
	return recurrence.NewRule(time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC), recurrence.Weekly{Days: days})
}

func TestStore_CreateAndGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := &storage.Record{Summary: "Gym", Rule: testRule(time.Monday, time.Thursday)}
	require.NoError(t, store.CreateRule(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.ETag)
	assert.False(t, rec.Created.IsZero())
	assert.Equal(t, rec.Created, rec.Modified)

	got, err := store.GetRule(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// duplicate id
	dup := &storage.Record{ID: rec.ID, Rule: testRule()}
	err = store.CreateRule(ctx, dup)
	assert.True(t, storage.IsType(err, storage.ErrAlreadyExists))

	err = store.CreateRule(ctx, nil)
	assert.True(t, storage.IsType(err, storage.ErrInvalidInput))
}

func TestStore_GetMissing(t *testing.T) {
	store := New()

	_, err := store.GetRule(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Equal(t, storage.ErrNotFound, err.(*storage.Error).Type)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	days := []time.Weekday{time.Monday}
	rec := &storage.Record{ID: "r1", Rule: testRule(days...)}
	require.NoError(t, store.CreateRule(ctx, rec))

	rec.Summary = "changed"
	rec.Rule.Pattern.(recurrence.Weekly).Days[0] = time.Friday

	got, err := store.GetRule(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, got.Summary)
	assert.Equal(t, []time.Weekday{time.Monday}, got.Rule.Pattern.(recurrence.Weekly).Days)
}

func TestStore_Update(t *testing.T) {
	store := New()
	ctx := context.Background()

	now := time.Date(2025, 9, 21, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	rec := &storage.Record{ID: "r1", Summary: "Rent", Rule: testRule(time.Monday)}
	require.NoError(t, store.CreateRule(ctx, rec))
	firstETag := rec.ETag

	now = now.Add(time.Hour)
	update := &storage.Record{ID: "r1", Summary: "Rent", Rule: testRule(time.Tuesday)}
	require.NoError(t, store.UpdateRule(ctx, update))

	got, err := store.GetRule(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 21, 10, 0, 0, 0, time.UTC), got.Created)
	assert.Equal(t, now, got.Modified)
	assert.NotEqual(t, firstETag, got.ETag)
	assert.Equal(t, update.ETag, got.ETag)

	// same content, same etag
	same := &storage.Record{ID: "r1", Summary: "Rent", Rule: testRule(time.Tuesday)}
	require.NoError(t, store.UpdateRule(ctx, same))
	assert.Equal(t, got.ETag, same.ETag)

	err = store.UpdateRule(ctx, &storage.Record{ID: "missing", Rule: testRule()})
	assert.True(t, storage.IsType(err, storage.ErrNotFound))

	err = store.UpdateRule(ctx, &storage.Record{Rule: testRule()})
	assert.True(t, storage.IsType(err, storage.ErrInvalidInput))
}

func TestStore_Delete(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.CreateRule(ctx, &storage.Record{ID: "r1", Rule: testRule()}))
	require.NoError(t, store.DeleteRule(ctx, "r1"))

	_, err := store.GetRule(ctx, "r1")
	assert.True(t, storage.IsType(err, storage.ErrNotFound))

	err = store.DeleteRule(ctx, "r1")
	assert.True(t, storage.IsType(err, storage.ErrNotFound))
}

func TestStore_List(t *testing.T) {
	store := New()
	ctx := context.Background()

	now := time.Date(2025, 9, 21, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.CreateRule(ctx, &storage.Record{ID: id, Rule: testRule()}))
		now = now.Add(time.Minute)
	}
	// same timestamp as "b" sorts by id
	now = now.Add(-time.Minute)
	require.NoError(t, store.CreateRule(ctx, &storage.Record{ID: "aa", Rule: testRule()}))

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)

	var ids []string
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "aa", "b"}, ids)

	empty, err := New().ListRules(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_Concurrent(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &storage.Record{Rule: testRule(time.Monday)}
			if assert.NoError(t, store.CreateRule(ctx, rec)) {
				_, err := store.GetRule(ctx, rec.ID)
				assert.NoError(t, err)
			}
			_, err := store.ListRules(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 20)
}
