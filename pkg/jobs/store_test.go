package jobs

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/pkg/extract"
)

func testJob(id string, status Status, created time.Time) *Job {
	return &Job{
		ID:        id,
		Type:      TypeMetadata,
		Status:    status,
		Input:     extract.Request{FileRef: "/tmp/" + id, Metadata: &extract.MetadataOptions{}},
		CreatedAt: created,
		UpdatedAt: created,
		Timeout:   time.Minute,
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	store := NewStore()

	job := testJob("job-1", StatusPending, time.Now())
	require.NoError(t, store.Insert(job))

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, "job-1", got.ID)
	require.Equal(t, StatusPending, got.Status)

	// The store hands out copies; mutating them must not leak back.
	got.Status = StatusCompleted
	fresh, err := store.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, fresh.Status)
}

func TestStore_InsertDuplicate(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert(testJob("job-1", StatusPending, time.Now())))

	err := store.Insert(testJob("job-1", StatusPending, time.Now()))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()

	// Idempotent not-found: every lookup of an unknown id fails the same way.
	for i := 0; i < 3; i++ {
		_, err := store.Get("nope")
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestStore_UpdateAtomic(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert(testJob("job-1", StatusQueued, time.Now())))

	// A failing mutator must leave the record untouched.
	_, err := store.Update("job-1", func(j *Job) error {
		j.Status = StatusCompleted
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, StatusQueued, got.Status)
}

func TestStore_UpdateUnknown(t *testing.T) {
	store := NewStore()
	_, err := store.Update("nope", func(j *Job) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Insert(testJob("job-1", StatusProcessing, time.Now())))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			_, _ = store.Update("job-1", func(j *Job) error {
				if p > j.Progress {
					j.Progress = p
				}
				return nil
			})
		}(i * 2)
	}
	wg.Wait()

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, 100, got.Progress)
	require.Equal(t, StatusProcessing, got.Status)
}

func TestStore_ListFilters(t *testing.T) {
	store := NewStore()
	base := time.Now()

	j1 := testJob("a", StatusQueued, base)
	j1.UserID = "alice"
	j2 := testJob("b", StatusCompleted, base.Add(time.Second))
	j2.UserID = "alice"
	j2.Type = TypeAssets
	j3 := testJob("c", StatusQueued, base.Add(2*time.Second))
	j3.UserID = "bob"

	for _, j := range []*Job{j1, j2, j3} {
		require.NoError(t, store.Insert(j))
	}

	tests := []struct {
		name      string
		query     ListQuery
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "by user",
			query:     ListQuery{UserID: "alice", OrderBy: OrderByCreatedAt, Direction: OrderAsc},
			wantIDs:   []string{"a", "b"},
			wantTotal: 2,
		},
		{
			name:      "by status",
			query:     ListQuery{Status: StatusQueued, OrderBy: OrderByCreatedAt, Direction: OrderAsc},
			wantIDs:   []string{"a", "c"},
			wantTotal: 2,
		},
		{
			name:      "by type",
			query:     ListQuery{Type: TypeAssets},
			wantIDs:   []string{"b"},
			wantTotal: 1,
		},
		{
			name:      "descending default",
			query:     ListQuery{},
			wantIDs:   []string{"c", "b", "a"},
			wantTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := store.List(tt.query)
			require.NoError(t, err)
			require.Equal(t, tt.wantTotal, total)

			ids := make([]string, 0, len(items))
			for _, j := range items {
				ids = append(ids, j.ID)
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_ListPagination(t *testing.T) {
	store := NewStore()
	base := time.Now()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Insert(testJob(fmt.Sprintf("job-%02d", i), StatusQueued, base.Add(time.Duration(i)*time.Second))))
	}

	items, total, err := store.List(ListQuery{OrderBy: OrderByCreatedAt, Direction: OrderAsc, Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Equal(t, 25, total)
	require.Len(t, items, 5)
	require.Equal(t, "job-20", items[0].ID)

	// Total is independent of page bounds.
	items, total, err = store.List(ListQuery{Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 25, total)
	require.Len(t, items, 3)

	// Offset past the end yields an empty page, not an error.
	items, total, err = store.List(ListQuery{Offset: 100})
	require.NoError(t, err)
	require.Equal(t, 25, total)
	require.Empty(t, items)
}

func TestStore_ListLimitClamping(t *testing.T) {
	store := NewStore()
	base := time.Now()
	for i := 0; i < 150; i++ {
		require.NoError(t, store.Insert(testJob(fmt.Sprintf("job-%03d", i), StatusQueued, base.Add(time.Duration(i)*time.Millisecond))))
	}

	// Zero limit falls back to the default page size.
	items, _, err := store.List(ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, DefaultListLimit)

	// Oversized limits are clamped, never honored.
	items, _, err = store.List(ListQuery{Limit: 1000})
	require.NoError(t, err)
	require.Len(t, items, MaxListLimit)
}

func TestStore_ListInvalidQuery(t *testing.T) {
	store := NewStore()

	_, _, err := store.List(ListQuery{OrderBy: "nope"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = store.List(ListQuery{Direction: "sideways"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = store.List(ListQuery{Status: "sleeping"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = store.List(ListQuery{Offset: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStore_EvictTerminalBefore(t *testing.T) {
	store := NewStore()
	now := time.Now()

	old := testJob("old", StatusProcessing, now.Add(-48*time.Hour))
	require.NoError(t, store.Insert(old))
	_, err := store.Update("old", func(j *Job) error {
		if err := j.Transition(StatusCompleted, now.Add(-25*time.Hour)); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)

	fresh := testJob("fresh", StatusQueued, now)
	require.NoError(t, store.Insert(fresh))

	evicted := store.EvictTerminalBefore(now.Add(-24 * time.Hour))
	require.Len(t, evicted, 1)
	require.Equal(t, "old", evicted[0].ID)

	_, err = store.Get("old")
	require.ErrorIs(t, err, ErrNotFound)

	// Non-terminal jobs are never evicted regardless of age.
	_, err = store.Get("fresh")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
}
