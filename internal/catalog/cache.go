// Package catalog maintains the derived cross-tenant video catalog: a single
// cached document flattening every tenant's records, rebuilt by scanning the
// bucket and served with pagination and optional shuffling.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
	"github.com/TheRizaev/kronik/internal/namespace"
)

// Source is the per-tenant read surface the catalog flattens. The document
// store satisfies it.
type Source interface {
	ListVideos(ctx context.Context, tenant string) ([]*model.VideoRecord, error)
	GetProfile(ctx context.Context, tenant string) (*model.UserProfile, error)
}

// Document is the persisted catalog cache.
type Document struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Videos      []model.CatalogEntry `json:"videos"`
}

// Config holds catalog cache settings.
type Config struct {
	// Workers bounds the per-tenant fan-out during a rebuild.
	Workers int

	// RebuildTimeout caps a full rebuild; tenants not scanned in time are
	// dropped from this generation (partial results are accepted).
	RebuildTimeout time.Duration

	// StaleAfter is the age beyond which a cached document is served stale
	// while a background rebuild is triggered.
	StaleAfter time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        8,
		RebuildTimeout: 2 * time.Minute,
		StaleAfter:     15 * time.Minute,
	}
}

// Cache rebuilds and serves the catalog document.
type Cache struct {
	storage repository.ObjectStorage
	source  Source
	config  Config

	group singleflight.Group

	now func() time.Time
}

// New creates a catalog cache over the given storage and record source.
func New(storage repository.ObjectStorage, source Source, cfg Config) *Cache {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 2 * time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 15 * time.Minute
	}
	return &Cache{
		storage: storage,
		source:  source,
		config:  cfg,
		now:     time.Now,
	}
}

// Rebuild rescans every tenant and persists a fresh catalog document.
// Tenant scan failures and deadline overruns drop that tenant's entries from
// the generation instead of failing the rebuild.
func (c *Cache) Rebuild(ctx context.Context, trigger string) (*Document, error) {
	start := c.now()
	ctx, cancel := context.WithTimeout(ctx, c.config.RebuildTimeout)
	defer cancel()

	tenants, err := c.listTenants(ctx)
	if err != nil {
		metrics.CatalogRebuildsTotal.WithLabelValues(trigger, metrics.CatalogResultError).Inc()
		return nil, err
	}

	var (
		mu      sync.Mutex
		entries []model.CatalogEntry
		partial bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for _, tenant := range tenants {
		g.Go(func() error {
			tenantEntries, err := c.scanTenant(gctx, tenant)
			if err != nil {
				slog.Warn("catalog rebuild skipping tenant", "tenant", tenant, "error", err)
				mu.Lock()
				partial = true
				mu.Unlock()
				return nil // partial results, never abort the group
			}
			mu.Lock()
			entries = append(entries, tenantEntries...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers only ever return nil

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UploadDate.After(entries[j].UploadDate)
	})

	doc := &Document{
		GeneratedAt: c.now().UTC(),
		Videos:      entries,
	}
	if err := c.putDocument(ctx, doc); err != nil {
		metrics.CatalogRebuildsTotal.WithLabelValues(trigger, metrics.CatalogResultError).Inc()
		return nil, err
	}

	result := metrics.CatalogResultSuccess
	if partial {
		result = metrics.CatalogResultPartial
	}
	metrics.CatalogRebuildsTotal.WithLabelValues(trigger, result).Inc()
	metrics.CatalogRebuildDuration.Observe(c.now().Sub(start).Seconds())

	slog.Info("catalog rebuilt",
		"tenants", len(tenants),
		"videos", len(doc.Videos),
		"partial", partial,
		"elapsed", c.now().Sub(start),
	)
	return doc, nil
}

// Read returns a page of the catalog together with the total entry count, so
// callers can paginate without fetching the whole document. An absent cache
// document is built synchronously; a stale one is served as-is while a single
// detached rebuild refreshes it in the background.
func (c *Cache) Read(ctx context.Context, offset, limit int, shuffle bool) ([]model.CatalogEntry, int, error) {
	doc, err := c.getDocument(ctx)
	switch {
	case err == nil:
		if c.now().Sub(doc.GeneratedAt) > c.config.StaleAfter {
			c.refreshDetached()
		}
	case isNotFound(err):
		doc, err = c.rebuildShared(ctx, metrics.CatalogTriggerOnDemand)
		if err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, err
	}

	total := len(doc.Videos)

	videos := doc.Videos
	if shuffle {
		videos = append([]model.CatalogEntry(nil), videos...)
		rand.Shuffle(len(videos), func(i, j int) {
			videos[i], videos[j] = videos[j], videos[i]
		})
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(videos) {
		return []model.CatalogEntry{}, total, nil
	}
	end := len(videos)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return videos[offset:end], total, nil
}

// rebuildShared collapses concurrent rebuild requests into one execution.
func (c *Cache) rebuildShared(ctx context.Context, trigger string) (*Document, error) {
	v, err, shared := c.group.Do("rebuild", func() (any, error) {
		return c.Rebuild(ctx, trigger)
	})
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// refreshDetached starts at most one background rebuild, detached from the
// request's cancellation.
func (c *Cache) refreshDetached() {
	go func() {
		if _, err := c.rebuildShared(context.Background(), metrics.CatalogTriggerStale); err != nil {
			slog.Error("background catalog refresh failed", "error", err)
		}
	}()
}

// listTenants collects the top-level tenant prefixes, skipping the reserved
// system prefix and anything not carrying the tenant marker.
func (c *Cache) listTenants(ctx context.Context) ([]string, error) {
	var tenants []string
	for info := range c.storage.ListByPrefix(ctx, "", false) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", info.Err)
		}
		if !namespace.IsTenantKey(info.Key) {
			continue
		}
		tenants = append(tenants, strings.TrimSuffix(info.Key, "/"))
	}
	return tenants, nil
}

// scanTenant flattens one tenant's published records into catalog entries.
func (c *Cache) scanTenant(ctx context.Context, tenant string) ([]model.CatalogEntry, error) {
	records, err := c.source.ListVideos(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	displayName := strings.TrimPrefix(tenant, namespace.TenantMarker)
	if profile, err := c.source.GetProfile(ctx, tenant); err == nil {
		displayName = profile.Name()
	} else {
		slog.Warn("catalog falling back to bare handle", "tenant", tenant, "error", err)
	}

	entries := make([]model.CatalogEntry, 0, len(records))
	for _, record := range records {
		if record.Status != model.StatusPublished {
			continue
		}
		entries = append(entries, model.CatalogEntry{
			VideoRecord:  *record,
			DisplayName:  displayName,
			HasThumbnail: record.ThumbnailPath != "",
		})
	}
	return entries, nil
}

func (c *Cache) getDocument(ctx context.Context) (*Document, error) {
	rc, err := c.storage.Get(ctx, namespace.CatalogCacheKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: catalog cache: %v", repository.ErrMalformedDocument, err)
	}
	return &doc, nil
}

func (c *Cache) putDocument(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode catalog cache: %w", err)
	}
	if err := c.storage.Put(ctx, namespace.CatalogCacheKey, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("failed to store catalog cache: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrObjectNotFound)
}
