package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/infrastructure/storage"
	"github.com/TheRizaev/kronik/internal/namespace"
)

var testTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	cache *Cache
	store *docstore.Store
	mem   *storage.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := storage.NewMemoryStorage()
	store := docstore.New(mem, docstore.DefaultConfig())
	cache := New(mem, store, Config{
		Workers:        4,
		RebuildTimeout: 30 * time.Second,
		StaleAfter:     15 * time.Minute,
	})
	cache.now = func() time.Time { return testTime }
	return &fixture{cache: cache, store: store, mem: mem}
}

func (f *fixture) seedVideo(t *testing.T, tenant, filename, title string) string {
	t.Helper()
	ctx := context.Background()

	if err := f.store.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("CreateTenant(%s) error = %v", tenant, err)
	}

	record, err := f.store.CreateVideo(ctx, docstore.CreateVideoInput{
		Tenant:   tenant,
		Filename: filename,
		Title:    title,
		Media:    strings.NewReader("media"),
		Size:     5,
	})
	if err != nil {
		t.Fatalf("CreateVideo(%s) error = %v", filename, err)
	}
	return record.VideoID
}

func TestRebuildFlattensAllTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedVideo(t, "@alice", "a1.mp4", "Alice one")
	f.seedVideo(t, "@alice", "a2.mp4", "Alice two")
	f.seedVideo(t, "@bob", "b1.mp4", "Bob one")

	doc, err := f.cache.Rebuild(ctx, "on_demand")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if len(doc.Videos) != 3 {
		t.Fatalf("catalog has %d entries, want 3", len(doc.Videos))
	}

	// The cache document itself lives under system/ and must never be
	// scanned as a tenant.
	if f.mem.Raw(namespace.CatalogCacheKey) == nil {
		t.Fatal("catalog document not persisted")
	}
	doc2, err := f.cache.Rebuild(ctx, "on_demand")
	if err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}
	if len(doc2.Videos) != 3 {
		t.Errorf("second rebuild has %d entries, want 3", len(doc2.Videos))
	}
}

func TestRebuildEnrichesEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	videoID := f.seedVideo(t, "@alice", "clip.mp4", "Clip")
	name := "Alice"
	if _, err := f.store.UpdateProfile(ctx, "@alice", docstore.UpdateProfileInput{DisplayName: &name}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if err := f.store.AttachThumbnail(ctx, "@alice", videoID, strings.NewReader("img"), 3, "image/jpeg"); err != nil {
		t.Fatalf("AttachThumbnail() error = %v", err)
	}

	doc, err := f.cache.Rebuild(ctx, "on_demand")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if len(doc.Videos) != 1 {
		t.Fatalf("catalog has %d entries, want 1", len(doc.Videos))
	}
	entry := doc.Videos[0]
	if entry.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", entry.DisplayName)
	}
	if !entry.HasThumbnail {
		t.Error("expected HasThumbnail set")
	}
}

func TestReadBuildsOnAbsence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedVideo(t, "@alice", "clip.mp4", "Clip")

	if f.mem.Raw(namespace.CatalogCacheKey) != nil {
		t.Fatal("cache document must not exist before first read")
	}

	entries, total, err := f.cache.Read(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Read() returned %d entries, want 1", len(entries))
	}
	if total != 1 {
		t.Errorf("Read() total = %d, want 1", total)
	}
	if f.mem.Raw(namespace.CatalogCacheKey) == nil {
		t.Error("synchronous build must persist the cache document")
	}
}

func TestReadPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4"} {
		f.seedVideo(t, "@alice", name, name)
	}
	if _, err := f.cache.Rebuild(ctx, "on_demand"); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	tests := []struct {
		name          string
		offset, limit int
		want          int
	}{
		{name: "first page", offset: 0, limit: 2, want: 2},
		{name: "second page", offset: 2, limit: 2, want: 2},
		{name: "offset past end", offset: 10, limit: 2, want: 0},
		{name: "zero limit returns rest", offset: 1, limit: 0, want: 3},
		{name: "negative offset clamps", offset: -3, limit: 2, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, total, err := f.cache.Read(ctx, tt.offset, tt.limit, false)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("Read(%d, %d) returned %d entries, want %d", tt.offset, tt.limit, len(entries), tt.want)
			}
			// The total reports the whole catalog regardless of the window.
			if total != 4 {
				t.Errorf("Read(%d, %d) total = %d, want 4", tt.offset, tt.limit, total)
			}
		})
	}
}

func TestReadServesStaleAndRefreshes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedVideo(t, "@alice", "old.mp4", "Old")
	if _, err := f.cache.Rebuild(ctx, "on_demand"); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	// New upload not yet in the cache document.
	f.seedVideo(t, "@alice", "fresh.mp4", "Fresh")

	// Move the clock past the staleness threshold.
	f.cache.now = func() time.Time { return testTime.Add(time.Hour) }

	entries, _, err := f.cache.Read(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("stale read returned %d entries, want the 1 cached entry", len(entries))
	}

	// The detached refresh eventually rewrites the document with both videos.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fresh, _, err := f.cache.Read(ctx, 0, 10, false)
		if err == nil && len(fresh) == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("background refresh never updated the catalog")
}

func TestReadShuffleKeepsWindowSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4"} {
		f.seedVideo(t, "@alice", name, name)
	}
	if _, err := f.cache.Rebuild(ctx, "on_demand"); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	entries, total, err := f.cache.Read(ctx, 0, 3, true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("shuffled read returned %d entries, want 3", len(entries))
	}
	if total != 5 {
		t.Errorf("shuffled read total = %d, want 5", total)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.VideoID] {
			t.Errorf("duplicate entry %s in shuffled window", e.VideoID)
		}
		seen[e.VideoID] = true
	}
}
