package chart_test

import (
	"context"
	"errors"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/seatmap/internal/domain"
)

var errBackendDown = errors.New("backend down")

func cloneChart(c *domain.SeatingChart) *domain.SeatingChart {
	out := *c
	out.Layout = c.Layout.Clone()
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

// ---------------------------------------------------------------------------
// In-memory ChartRepository
// ---------------------------------------------------------------------------

type fakeCharts struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]*domain.SeatingChart
	seq    map[uuid.UUID]int
	next   int
	clock  time.Time
	reads  int
	lists  int
	failed error

	// beforeUpdate runs inside Update before the revision check, letting a
	// test simulate a concurrent writer.
	beforeUpdate func(row *domain.SeatingChart)

	// beforeGet runs at the start of GetByID, outside the lock, with the
	// context the repository received.
	beforeGet func(ctx context.Context) error
}

func newFakeCharts() *fakeCharts {
	return &fakeCharts{
		rows:  make(map[uuid.UUID]*domain.SeatingChart),
		seq:   make(map[uuid.UUID]int),
		clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeCharts) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeCharts) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeCharts) Create(_ context.Context, c *domain.SeatingChart) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failed != nil {
		return f.failed
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	now := f.tick()
	c.ID = id
	c.Revision = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	f.next++
	f.seq[id] = f.next
	f.rows[id] = cloneChart(c)
	return nil
}

func (f *fakeCharts) GetByID(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	if f.beforeGet != nil {
		if err := f.beforeGet(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	row, ok := f.rows[id]
	if !ok || !row.IsActive {
		return nil, domain.ErrNotFound
	}
	return cloneChart(row), nil
}

func (f *fakeCharts) GetByIDUnscoped(_ context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneChart(row), nil
}

func (f *fakeCharts) List(_ context.Context, filter domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lists++
	filter = filter.Normalize()

	var matched []*domain.SeatingChart
	for _, row := range f.rows {
		if filter.Department != "" && row.Department != filter.Department {
			continue
		}
		if filter.Active != nil && row.IsActive != *filter.Active {
			continue
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return f.seq[matched[i].ID] > f.seq[matched[j].ID]
	})

	items := []*domain.SeatingChart{}
	start := domain.Offset(filter.Page, filter.Limit)
	for i := start; i < len(matched) && i < start+filter.Limit; i++ {
		items = append(items, cloneChart(matched[i]))
	}
	return &domain.Page[*domain.SeatingChart]{Items: items, Page: filter.Page, Limit: filter.Limit, Total: int64(len(matched))}, nil
}

func (f *fakeCharts) Update(_ context.Context, id uuid.UUID, p domain.ChartPatch, opts domain.UpdateOptions) (*domain.SeatingChart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || (!row.IsActive && !opts.AllowInactive) {
		return nil, domain.ErrNotFound
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(row)
	}
	if opts.ExpectedRevision > 0 && row.Revision != opts.ExpectedRevision {
		return nil, domain.ErrConflict
	}

	row.Apply(p)
	if p.IsActive != nil {
		if *p.IsActive {
			row.DeletedAt = nil
		} else if row.DeletedAt == nil {
			now := f.clock
			row.DeletedAt = &now
		}
	}
	row.Revision++
	row.UpdatedAt = f.tick()
	return cloneChart(row), nil
}

func (f *fakeCharts) SoftDelete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	row.IsActive = false
	if row.DeletedAt == nil {
		now := f.tick()
		row.DeletedAt = &now
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory ChartVersionRepository
// ---------------------------------------------------------------------------

type fakeVersions struct {
	mu    sync.Mutex
	log   []*domain.ChartVersion
	clock time.Time
}

func newFakeVersions() *fakeVersions {
	return &fakeVersions{clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeVersions) Snapshot(_ context.Context, chartID uuid.UUID, state *domain.SeatingChart) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, err
	}
	f.clock = f.clock.Add(time.Second)
	f.log = append(f.log, &domain.ChartVersion{ID: id, ChartID: chartID, Data: *cloneChart(state), CreatedAt: f.clock})
	return id, nil
}

func (f *fakeVersions) forChart(chartID uuid.UUID) []*domain.ChartVersion {
	var out []*domain.ChartVersion
	for i := len(f.log) - 1; i >= 0; i-- {
		if f.log[i].ChartID == chartID {
			out = append(out, f.log[i])
		}
	}
	return out
}

func (f *fakeVersions) List(_ context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page, limit = domain.NormalizePage(page, limit)
	all := f.forChart(chartID)
	items := []*domain.ChartVersion{}
	start := domain.Offset(page, limit)
	for i := start; i < len(all) && i < start+limit; i++ {
		items = append(items, all[i])
	}
	return &domain.Page[*domain.ChartVersion]{Items: items, Page: page, Limit: limit, Total: int64(len(all))}, nil
}

func (f *fakeVersions) Get(_ context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range f.log {
		if v.ID == versionID && v.ChartID == chartID {
			return v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVersions) Prune(_ context.Context, chartID uuid.UUID, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keepIDs := make(map[uuid.UUID]struct{})
	for i, v := range f.forChart(chartID) {
		if i < keep {
			keepIDs[v.ID] = struct{}{}
		}
	}

	var pruned int64
	out := f.log[:0]
	for _, v := range f.log {
		if _, ok := keepIDs[v.ID]; v.ChartID == chartID && !ok {
			pruned++
			continue
		}
		out = append(out, v)
	}
	f.log = out
	return pruned, nil
}

func (f *fakeVersions) count(chartID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forChart(chartID))
}

// ---------------------------------------------------------------------------
// In-memory Cache
// ---------------------------------------------------------------------------

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	down    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return nil, false, errBackendDown
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return errBackendDown
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return errBackendDown
	}
	for _, k := range keys {
		delete(c.entries, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *fakeCache) KeysMatching(_ context.Context, pattern string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return nil, errBackendDown
	}
	var out []string
	for k := range c.entries {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *fakeCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// ---------------------------------------------------------------------------
// Recording Publisher
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChartEvent
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev domain.ChartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []domain.ChartEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ChartEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
