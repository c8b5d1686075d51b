package jobs

import (
	"sort"
	"sync"
	"time"
)

// Listing defaults and bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// OrderField selects the timestamp used to order listings.
type OrderField string

const (
	OrderByCreatedAt   OrderField = "createdAt"
	OrderByUpdatedAt   OrderField = "updatedAt"
	OrderByCompletedAt OrderField = "completedAt"
)

// Valid reports whether f is a known order field.
func (f OrderField) Valid() bool {
	switch f {
	case OrderByCreatedAt, OrderByUpdatedAt, OrderByCompletedAt:
		return true
	}
	return false
}

// OrderDirection selects ascending or descending listing order.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// Valid reports whether d is a known direction.
func (d OrderDirection) Valid() bool {
	return d == OrderAsc || d == OrderDesc
}

// ListQuery filters, orders and pages a job listing.
// Zero values mean "no filter"; Limit is clamped to [1, MaxListLimit] and
// defaults to DefaultListLimit when unset.
type ListQuery struct {
	UserID string
	Type   Type
	Status Status

	OrderBy   OrderField
	Direction OrderDirection

	Limit  int
	Offset int
}

// Store is the authoritative in-process registry of jobs.
//
// All mutations go through Insert/Update under a single write lock, so a
// transition is either fully visible or not at all; readers always receive
// copies, never live pointers into the map.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*Job),
	}
}

// Insert adds a new job. The id must not already exist.
func (s *Store) Insert(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return &AlreadyExistsError{ID: job.ID}
	}
	s.jobs[job.ID] = job.clone()
	return nil
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return job.clone(), nil
}

// Update applies mutate to the stored job atomically and returns a copy of
// the updated record. If mutate returns an error the job is left untouched;
// this is the compare-and-swap primitive the scheduler builds its terminal
// transitions on.
func (s *Store) Update(id string, mutate func(*Job) error) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	// Mutate a scratch copy so a failed mutator leaves no partial write.
	scratch := job.clone()
	if err := mutate(scratch); err != nil {
		return nil, err
	}
	s.jobs[id] = scratch

	return scratch.clone(), nil
}

// Delete removes a job from the store. Used by the retention janitor.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.jobs, id)
	return nil
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// All returns copies of every stored job, in no particular order.
// Used by the reporter and the janitor for full scans.
func (s *Store) All() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.clone())
	}
	return out
}

// List returns one page of jobs matching q plus the total match count.
// The page is computed against a single consistent snapshot of the store.
func (s *Store) List(q ListQuery) ([]*Job, int, error) {
	if q.OrderBy == "" {
		q.OrderBy = OrderByCreatedAt
	}
	if q.Direction == "" {
		q.Direction = OrderDesc
	}
	if !q.OrderBy.Valid() {
		return nil, 0, &InvalidInputError{Field: "orderBy", Reason: "unknown order field"}
	}
	if !q.Direction.Valid() {
		return nil, 0, &InvalidInputError{Field: "orderDirection", Reason: "must be asc or desc"}
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, 0, &InvalidInputError{Field: "type", Reason: "unknown job type"}
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, &InvalidInputError{Field: "status", Reason: "unknown job status"}
	}
	if q.Offset < 0 {
		return nil, 0, &InvalidInputError{Field: "offset", Reason: "must be >= 0"}
	}

	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}

	s.mu.RLock()
	matched := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if q.UserID != "" && job.UserID != q.UserID {
			continue
		}
		if q.Type != "" && job.Type != q.Type {
			continue
		}
		if q.Status != "" && job.Status != q.Status {
			continue
		}
		matched = append(matched, job.clone())
	}
	s.mu.RUnlock()

	sortJobs(matched, q.OrderBy, q.Direction)

	total := len(matched)
	if q.Offset >= total {
		return []*Job{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

// EvictTerminalBefore deletes terminal jobs whose completedAt is older than
// cutoff, returning the evicted jobs so callers can reclaim spooled files.
func (s *Store) EvictTerminalBefore(cutoff time.Time) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []*Job
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.CompletedAt.Before(cutoff) {
			evicted = append(evicted, job)
			delete(s.jobs, id)
		}
	}
	return evicted
}

func sortJobs(jobs []*Job, by OrderField, dir OrderDirection) {
	key := func(j *Job) time.Time {
		switch by {
		case OrderByUpdatedAt:
			return j.UpdatedAt
		case OrderByCompletedAt:
			return j.CompletedAt
		default:
			return j.CreatedAt
		}
	}

	sort.SliceStable(jobs, func(i, k int) bool {
		a, b := key(jobs[i]), key(jobs[k])
		if a.Equal(b) {
			// Stable tiebreak so pages do not shuffle between reads.
			if dir == OrderAsc {
				return jobs[i].ID < jobs[k].ID
			}
			return jobs[i].ID > jobs[k].ID
		}
		if dir == OrderAsc {
			return a.Before(b)
		}
		return a.After(b)
	})
}
