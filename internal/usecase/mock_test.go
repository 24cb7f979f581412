package usecase

import (
	"context"
	"time"

	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/transcoder"
)

// mockDocumentStore is a mock implementation of DocumentStore.
type mockDocumentStore struct {
	createVideoFunc    func(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error)
	getVideoFunc       func(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error)
	attachVariantsFunc func(ctx context.Context, tenant, videoID string, variants map[string]model.QualityVariant) error
	incrementViewsFunc func(ctx context.Context, tenant, videoID string) (int64, error)
	adjustFunc         func(ctx context.Context, tenant, videoID string, likesDelta, dislikesDelta int64) (*model.VideoRecord, error)
}

func (m *mockDocumentStore) CreateVideo(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error) {
	if m.createVideoFunc != nil {
		return m.createVideoFunc(ctx, in)
	}
	return nil, nil
}

func (m *mockDocumentStore) GetVideo(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error) {
	if m.getVideoFunc != nil {
		return m.getVideoFunc(ctx, tenant, videoID)
	}
	return nil, nil
}

func (m *mockDocumentStore) AttachQualityVariants(ctx context.Context, tenant, videoID string, variants map[string]model.QualityVariant) error {
	if m.attachVariantsFunc != nil {
		return m.attachVariantsFunc(ctx, tenant, videoID, variants)
	}
	return nil
}

func (m *mockDocumentStore) IncrementViews(ctx context.Context, tenant, videoID string) (int64, error) {
	if m.incrementViewsFunc != nil {
		return m.incrementViewsFunc(ctx, tenant, videoID)
	}
	return 0, nil
}

func (m *mockDocumentStore) AdjustReactions(ctx context.Context, tenant, videoID string, likesDelta, dislikesDelta int64) (*model.VideoRecord, error) {
	if m.adjustFunc != nil {
		return m.adjustFunc(ctx, tenant, videoID, likesDelta, dislikesDelta)
	}
	return nil, nil
}

// mockMessageQueue is a mock implementation of repository.MessageQueue.
type mockMessageQueue struct {
	publishFunc func(ctx context.Context, task repository.TranscodeTask) error
	published   []repository.TranscodeTask
}

func (m *mockMessageQueue) PublishTranscodeTask(ctx context.Context, task repository.TranscodeTask) error {
	m.published = append(m.published, task)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, task)
	}
	return nil
}

func (m *mockMessageQueue) ConsumeTranscodeTasks(ctx context.Context, handler func(repository.TranscodeTask) error) error {
	return nil
}

func (m *mockMessageQueue) Close() error { return nil }

// mockRecordCache is a mock implementation of cache.RecordCache.
type mockRecordCache struct {
	getFunc    func(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error)
	setFunc    func(ctx context.Context, record *model.VideoRecord, ttl time.Duration) error
	deleteFunc func(ctx context.Context, tenant, videoID string) error
	deleted    []string
}

func (m *mockRecordCache) Get(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, tenant, videoID)
	}
	return nil, nil
}

func (m *mockRecordCache) Set(ctx context.Context, record *model.VideoRecord, ttl time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, record, ttl)
	}
	return nil
}

func (m *mockRecordCache) Delete(ctx context.Context, tenant, videoID string) error {
	m.deleted = append(m.deleted, tenant+"/"+videoID)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, tenant, videoID)
	}
	return nil
}

// mockProber is a mock implementation of transcoder.Prober.
type mockProber struct {
	probeFunc func(ctx context.Context, inputPath string) (*transcoder.MediaInfo, error)
}

func (m *mockProber) Probe(ctx context.Context, inputPath string) (*transcoder.MediaInfo, error) {
	if m.probeFunc != nil {
		return m.probeFunc(ctx, inputPath)
	}
	return &transcoder.MediaInfo{Width: 1920, Height: 1080, Duration: 83}, nil
}

// mockEncoder is a mock implementation of transcoder.Encoder.
type mockEncoder struct {
	encodeFunc func(ctx context.Context, inputPath, outputPath string, preset transcoder.Preset) error
}

func (m *mockEncoder) Encode(ctx context.Context, inputPath, outputPath string, preset transcoder.Preset) error {
	if m.encodeFunc != nil {
		return m.encodeFunc(ctx, inputPath, outputPath, preset)
	}
	return nil
}

// mockEngagementStore is a mock implementation of repository.EngagementStore.
type mockEngagementStore struct {
	recordViewFunc  func(ctx context.Context, userID, videoID, videoOwner string) (bool, error)
	setReactionFunc func(ctx context.Context, userID, videoID, videoOwner string, reaction repository.Reaction) (repository.Reaction, error)
	subscribeFunc   func(ctx context.Context, subscriberID, channelOwner string) error
	unsubscribeFunc func(ctx context.Context, subscriberID, channelOwner string) error
	countFunc       func(ctx context.Context, channelOwner string) (int64, error)
}

func (m *mockEngagementStore) RecordView(ctx context.Context, userID, videoID, videoOwner string) (bool, error) {
	if m.recordViewFunc != nil {
		return m.recordViewFunc(ctx, userID, videoID, videoOwner)
	}
	return true, nil
}

func (m *mockEngagementStore) SetReaction(ctx context.Context, userID, videoID, videoOwner string, reaction repository.Reaction) (repository.Reaction, error) {
	if m.setReactionFunc != nil {
		return m.setReactionFunc(ctx, userID, videoID, videoOwner, reaction)
	}
	return repository.ReactionNone, nil
}

func (m *mockEngagementStore) Subscribe(ctx context.Context, subscriberID, channelOwner string) error {
	if m.subscribeFunc != nil {
		return m.subscribeFunc(ctx, subscriberID, channelOwner)
	}
	return nil
}

func (m *mockEngagementStore) Unsubscribe(ctx context.Context, subscriberID, channelOwner string) error {
	if m.unsubscribeFunc != nil {
		return m.unsubscribeFunc(ctx, subscriberID, channelOwner)
	}
	return nil
}

func (m *mockEngagementStore) CountSubscribers(ctx context.Context, channelOwner string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, channelOwner)
	}
	return 0, nil
}

// mockSigner is a mock implementation of URLSigner.
type mockSigner struct {
	signFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	signed   []string
}

func (m *mockSigner) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.signed = append(m.signed, key)
	if m.signFunc != nil {
		return m.signFunc(ctx, key, ttl)
	}
	return "https://storage.local/" + key + "?signed", nil
}
