// Package chart orchestrates the versioned seating-chart store: the
// repository is the source of truth, snapshots are taken before every full
// update and rollback, and the cache is a best-effort accelerator.
package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/seatmap/internal/domain"
)

// Cache is the key-value accelerator used for cache-aside reads.
// *redis.Cache satisfies this interface.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	KeysMatching(ctx context.Context, pattern string) ([]string, error)
}

// Publisher broadcasts chart changes. *redis.PubSub satisfies this interface.
type Publisher interface {
	PublishChange(ctx context.Context, ev domain.ChartEvent) error
}

type Options struct {
	ItemTTL time.Duration
	ListTTL time.Duration
	// SnapshotOnSeatPatch records a version before each single-seat patch.
	SnapshotOnSeatPatch bool
	// MaxVersions caps the history kept per chart; 0 keeps everything.
	MaxVersions int
}

// sharedReadTimeout bounds a coalesced repository read, which no longer
// follows any caller's deadline.
const sharedReadTimeout = 10 * time.Second

func DefaultOptions() Options {
	return Options{
		ItemTTL: 600 * time.Second,
		ListTTL: 300 * time.Second,
	}
}

type Service struct {
	charts    domain.ChartRepository
	versions  domain.ChartVersionRepository
	cache     Cache
	publisher Publisher
	opts      Options
	group     singleflight.Group
	now       func() time.Time
}

// NewService wires the store. publisher may be nil.
func NewService(charts domain.ChartRepository, versions domain.ChartVersionRepository, cache Cache, publisher Publisher, opts Options) *Service {
	defaults := DefaultOptions()
	if opts.ItemTTL <= 0 {
		opts.ItemTTL = defaults.ItemTTL
	}
	if opts.ListTTL <= 0 {
		opts.ListTTL = defaults.ListTTL
	}

	return &Service{
		charts:    charts,
		versions:  versions,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in domain.ChartInput) (*domain.SeatingChart, error) {
	if err := domain.ValidateChartInput(in); err != nil {
		return nil, fmt.Errorf("chartService.Create: %w", err)
	}

	c := in.Chart()
	if err := s.charts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("chartService.Create: %w", err)
	}

	s.storeItem(ctx, c)
	s.invalidateLists(ctx, c.Department)
	s.publish(ctx, domain.ChartEventCreated, c, c.Department, "", nil)

	return c, nil
}

func (s *Service) List(ctx context.Context, f domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error) {
	f = f.Normalize()
	key := ListKey(f)

	var cached domain.Page[*domain.SeatingChart]
	if s.load(ctx, key, &cached) {
		return &cached, nil
	}

	page, err := s.charts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("chartService.List: %w", err)
	}

	s.store(ctx, key, page, s.opts.ListTTL)

	return page, nil
}

// Get returns an active chart. Concurrent misses for one id share a single
// repository read.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	var cached domain.SeatingChart
	if s.load(ctx, ItemKey(id), &cached) {
		return &cached, nil
	}

	// The shared read outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	results := s.group.DoChan(id.String(), func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		c, getErr := s.charts.GetByID(readCtx, id)
		if getErr != nil {
			return nil, getErr
		}
		s.storeItem(readCtx, c)
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("chartService.Get: %w", ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, fmt.Errorf("chartService.Get: %w", res.Err)
		}
		c, _ := res.Val.(*domain.SeatingChart)
		return c, nil
	}
}

// Update snapshots the current state, then merges patch. When ifRevision is
// positive it must match the stored revision. Concurrent writers lose with
// ErrConflict instead of overwriting each other.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.ChartPatch, ifRevision int64) (*domain.SeatingChart, error) {
	if err := domain.ValidateChartPatch(patch); err != nil {
		return nil, fmt.Errorf("chartService.Update: %w", err)
	}

	current, err := s.charts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("chartService.Update: %w", err)
	}
	if ifRevision > 0 && current.Revision != ifRevision {
		return nil, fmt.Errorf("chartService.Update: %w: revision is %d, expected %d", domain.ErrConflict, current.Revision, ifRevision)
	}

	// Metadata is replaced as a whole, but the original author survives a
	// patch that does not name one.
	if patch.Metadata != nil && patch.Metadata.CreatedBy == "" {
		md := *patch.Metadata
		md.CreatedBy = current.Metadata.CreatedBy
		patch.Metadata = &md
	}

	if _, err = s.versions.Snapshot(ctx, id, current); err != nil {
		return nil, fmt.Errorf("chartService.Update: snapshot: %w", err)
	}

	updated, err := s.charts.Update(ctx, id, patch, domain.UpdateOptions{ExpectedRevision: current.Revision})
	if err != nil {
		return nil, fmt.Errorf("chartService.Update: %w", err)
	}

	s.storeItem(ctx, updated)
	s.invalidateLists(ctx, updated.Department, current.Department)
	s.prune(ctx, id)
	s.publish(ctx, domain.ChartEventUpdated, updated, current.Department, "", nil)

	return updated, nil
}

// Delete soft-deletes a chart. History stays readable.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.charts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("chartService.Delete: %w", err)
	}

	if err = s.charts.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("chartService.Delete: %w", err)
	}

	s.evict(ctx, ItemKey(id))
	s.invalidateLists(ctx, current.Department)
	current.IsActive = false
	s.publish(ctx, domain.ChartEventDeleted, current, current.Department, "", nil)

	return nil
}

// PatchSeat merges patch into one seat and rewrites the layout. A version is
// recorded only when Options.SnapshotOnSeatPatch is set.
func (s *Service) PatchSeat(ctx context.Context, chartID uuid.UUID, seatID string, patch domain.SeatPatch) (*domain.SeatingChart, error) {
	if err := domain.ValidateSeatPatch(patch); err != nil {
		return nil, fmt.Errorf("chartService.PatchSeat: %w", err)
	}

	current, err := s.charts.GetByID(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("chartService.PatchSeat: %w", err)
	}

	idx := current.Layout.SeatIndex(seatID)
	if idx < 0 {
		return nil, fmt.Errorf("chartService.PatchSeat: seat %q: %w", seatID, domain.ErrSeatNotFound)
	}

	layout := current.Layout.Clone()
	layout.Seats[idx].Apply(patch)

	if s.opts.SnapshotOnSeatPatch {
		if _, err = s.versions.Snapshot(ctx, chartID, current); err != nil {
			return nil, fmt.Errorf("chartService.PatchSeat: snapshot: %w", err)
		}
	}

	updated, err := s.charts.Update(ctx, chartID, domain.ChartPatch{Layout: &layout}, domain.UpdateOptions{ExpectedRevision: current.Revision})
	if err != nil {
		return nil, fmt.Errorf("chartService.PatchSeat: %w", err)
	}

	s.storeItem(ctx, updated)
	s.invalidateLists(ctx, updated.Department)
	if s.opts.SnapshotOnSeatPatch {
		s.prune(ctx, chartID)
	}
	s.publish(ctx, domain.ChartEventSeatPatched, updated, current.Department, seatID, nil)

	return updated, nil
}

// ListVersions pages through a chart's history. Unknown ids yield an empty page.
func (s *Service) ListVersions(ctx context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error) {
	versions, err := s.versions.List(ctx, chartID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("chartService.ListVersions: %w", err)
	}
	return versions, nil
}

func (s *Service) GetVersion(ctx context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error) {
	v, err := s.versions.Get(ctx, chartID, versionID)
	if err != nil {
		return nil, fmt.Errorf("chartService.GetVersion: %w", err)
	}
	return v, nil
}

// Rollback overwrites a chart with a stored version. The state being replaced
// is snapshotted first so the rollback itself can be undone. Soft-deleted
// charts are restored in place.
func (s *Service) Rollback(ctx context.Context, chartID, versionID uuid.UUID) (*domain.SeatingChart, error) {
	v, err := s.versions.Get(ctx, chartID, versionID)
	if err != nil {
		return nil, fmt.Errorf("chartService.Rollback: %w", err)
	}

	current, err := s.charts.GetByIDUnscoped(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("chartService.Rollback: %w", err)
	}

	if _, err = s.versions.Snapshot(ctx, chartID, current); err != nil {
		return nil, fmt.Errorf("chartService.Rollback: snapshot: %w", err)
	}

	updated, err := s.charts.Update(ctx, chartID, v.Data.RestorePatch(), domain.UpdateOptions{
		ExpectedRevision: current.Revision,
		AllowInactive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("chartService.Rollback: %w", err)
	}

	if updated.IsActive {
		s.storeItem(ctx, updated)
	} else {
		s.evict(ctx, ItemKey(chartID))
	}
	s.invalidateLists(ctx, updated.Department, current.Department)
	s.prune(ctx, chartID)
	s.publish(ctx, domain.ChartEventRolledBack, updated, current.Department, "", &v.ID)

	return updated, nil
}

// ---------------------------------------------------------------------------
// Cache and side-effect helpers. Failures are logged and never fail the
// operation: the repository has already been written.
// ---------------------------------------------------------------------------

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("chart: cache get failed, reading repository")
		return false
	}
	if !ok {
		return false
	}
	if err = json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("chart: dropping undecodable cache entry")
		s.evict(ctx, key)
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("chart: cache encode failed")
		return
	}
	if err = s.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("chart: cache set failed")
	}
}

func (s *Service) storeItem(ctx context.Context, c *domain.SeatingChart) {
	s.store(ctx, ItemKey(c.ID), c, s.opts.ItemTTL)
}

func (s *Service) evict(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("chart: cache delete failed")
	}
}

// invalidateLists sweeps cached pages of every given department plus the
// all-departments listing.
func (s *Service) invalidateLists(ctx context.Context, departments ...string) {
	seen := map[string]struct{}{allScope: {}}
	patterns := []string{ListPattern("")}
	for _, d := range departments {
		if _, ok := seen[scope(d)]; ok {
			continue
		}
		seen[scope(d)] = struct{}{}
		patterns = append(patterns, ListPattern(d))
	}

	for _, pattern := range patterns {
		keys, err := s.cache.KeysMatching(ctx, pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("chart: cache sweep failed")
			continue
		}
		if len(keys) > 0 {
			s.evict(ctx, keys...)
		}
	}
}

func (s *Service) prune(ctx context.Context, chartID uuid.UUID) {
	if s.opts.MaxVersions <= 0 {
		return
	}
	n, err := s.versions.Prune(ctx, chartID, s.opts.MaxVersions)
	if err != nil {
		log.Warn().Err(err).Str("chart_id", chartID.String()).Msg("chart: version prune failed")
		return
	}
	if n > 0 {
		log.Debug().Str("chart_id", chartID.String()).Int64("pruned", n).Msg("chart: pruned old versions")
	}
}

// publish announces a change. from is the department the chart was in
// before the mutation; it is recorded only when it differs.
func (s *Service) publish(ctx context.Context, typ domain.ChartEventType, c *domain.SeatingChart, from, seatID string, versionID *uuid.UUID) {
	if s.publisher == nil {
		return
	}
	ev := domain.ChartEvent{
		Type:       typ,
		ChartID:    c.ID,
		Department: c.Department,
		Revision:   c.Revision,
		SeatID:     seatID,
		VersionID:  versionID,
		At:         s.now().UTC(),
	}
	if from != c.Department {
		ev.PreviousDepartment = from
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		log.Warn().Err(err).Str("chart_id", c.ID.String()).Str("event", string(typ)).Msg("chart: publish failed")
	}
}
