package docstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/TheRizaev/kronik/internal/infrastructure/storage"
)

var testTime = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStorage) {
	t.Helper()

	mem := storage.NewMemoryStorage()
	store := New(mem, Config{
		DefaultAvatar:            []byte("fake-png-bytes"),
		DefaultAvatarContentType: "image/png",
		AvatarURLTTL:             time.Hour,
	})
	store.now = func() time.Time { return testTime }
	return store, mem
}

func mustCreateTenant(t *testing.T, store *Store, tenant string) {
	t.Helper()
	if err := store.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("CreateTenant(%s) error = %v", tenant, err)
	}
}

func mustCreateVideo(t *testing.T, store *Store, tenant, filename, title string) string {
	t.Helper()
	record, err := store.CreateVideo(context.Background(), CreateVideoInput{
		Tenant:      tenant,
		Filename:    filename,
		Title:       title,
		Media:       strings.NewReader("media-bytes"),
		Size:        11,
		ContentType: "video/mp4",
		Duration:    "01:23",
	})
	if err != nil {
		t.Fatalf("CreateVideo(%s) error = %v", filename, err)
	}
	return record.VideoID
}
