package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampulse/activityd/pkg/analytics"
	"github.com/streampulse/activityd/pkg/broker"
	"github.com/streampulse/activityd/pkg/dispatch"
	"github.com/streampulse/activityd/pkg/models"
	"github.com/streampulse/activityd/pkg/store"
	"github.com/streampulse/activityd/test/util"
)

func validIngestRequest() models.IngestRequest {
	return models.IngestRequest{
		ActorID:       1,
		Verb:          "liked",
		ObjectType:    "photo",
		ObjectID:      "p1",
		TargetUserIDs: []int64{2, 3},
	}
}

func TestIngestValidation(t *testing.T) {
	// Validation happens before any store access.
	svc := NewIngestService(nil, nil, nil, nil, nil)

	longString := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	tests := []struct {
		name   string
		mutate func(*models.IngestRequest)
		field  string
	}{
		{"zero actor", func(r *models.IngestRequest) { r.ActorID = 0 }, "actor_id"},
		{"negative actor", func(r *models.IngestRequest) { r.ActorID = -4 }, "actor_id"},
		{"empty verb", func(r *models.IngestRequest) { r.Verb = "" }, "verb"},
		{"verb too long", func(r *models.IngestRequest) { r.Verb = longString(65) }, "verb"},
		{"empty object type", func(r *models.IngestRequest) { r.ObjectType = "" }, "object_type"},
		{"object type too long", func(r *models.IngestRequest) { r.ObjectType = longString(65) }, "object_type"},
		{"empty object id", func(r *models.IngestRequest) { r.ObjectID = "" }, "object_id"},
		{"object id too long", func(r *models.IngestRequest) { r.ObjectID = longString(129) }, "object_id"},
		{"non-positive target", func(r *models.IngestRequest) { r.TargetUserIDs = []int64{2, 0} }, "target_user_ids"},
		{"idempotency key too long", func(r *models.IngestRequest) { r.IdempotencyKey = longString(256) }, "idempotency_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validIngestRequest()
			tt.mutate(&req)

			_, err := svc.Ingest(context.Background(), req)
			require.Error(t, err)

			var validErr *ValidationError
			require.ErrorAs(t, err, &validErr)
			assert.Equal(t, tt.field, validErr.Field)
		})
	}
}

func TestIngestCreatesEventWithFanOut(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)
	svc := NewIngestService(st, nil, nil, nil, nil)
	ctx := context.Background()

	result, err := svc.Ingest(ctx, validIngestRequest())
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotZero(t, result.EventID)

	items, err := st.ListNotificationsSince(ctx, 2, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, result.EventID, items[0].Event.EventID)
	assert.Equal(t, "liked", items[0].Event.Verb)

	feed, err := st.ListFeed(ctx, 3, nil, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, result.EventID, feed[0].Event.EventID)
}

func TestIngestIdempotencyReplay(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)
	svc := NewIngestService(st, nil, nil, nil, nil)
	ctx := context.Background()

	req := validIngestRequest()
	req.TargetUserIDs = []int64{2}
	req.IdempotencyKey = "retry-abc"

	first, err := svc.Ingest(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Ingest(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.EventID, second.EventID)

	// The replay wrote nothing.
	items, err := st.ListNotificationsSince(ctx, 2, 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	feed, err := st.ListFeed(ctx, 2, nil, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestIngestDeduplicatesTargets(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)
	svc := NewIngestService(st, nil, nil, nil, nil)
	ctx := context.Background()

	req := validIngestRequest()
	req.TargetUserIDs = []int64{2, 2, 3, 2}

	_, err := svc.Ingest(ctx, req)
	require.NoError(t, err)

	for _, uid := range []int64{2, 3} {
		items, err := st.ListNotificationsSince(ctx, uid, 0, 10)
		require.NoError(t, err)
		assert.Len(t, items, 1, "user %d", uid)
	}
}

func TestIngestEmptyTargets(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)
	svc := NewIngestService(st, nil, nil, nil, nil)
	ctx := context.Background()

	req := validIngestRequest()
	req.TargetUserIDs = nil

	result, err := svc.Ingest(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestIngestHonorsRequestCreatedAt(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)
	svc := NewIngestService(st, nil, nil, nil, nil)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	req := validIngestRequest()
	req.TargetUserIDs = []int64{2}
	req.CreatedAt = &stamp

	_, err := svc.Ingest(ctx, req)
	require.NoError(t, err)

	items, err := st.ListNotificationsSince(ctx, 2, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, stamp.Equal(items[0].Event.CreatedAt))
}

func TestIngestPublishesToLiveSubscribers(t *testing.T) {
	pool := util.SetupTestDatabase(t)
	st := store.New(pool)

	b := broker.New(nil)
	d := dispatch.NewDispatcher(b, 1, 16)
	d.Start()
	defer d.Stop()

	registry := analytics.NewRegistry(5 * time.Second)
	svc := NewIngestService(st, b, d, registry, nil)
	ctx := context.Background()

	sub := b.Subscribe(2, 8)
	defer b.Unsubscribe(sub)

	req := validIngestRequest()
	req.TargetUserIDs = []int64{2}
	result, err := svc.Ingest(ctx, req)
	require.NoError(t, err)

	select {
	case msg := <-sub.C:
		assert.Equal(t, int64(2), msg.UserID)
		assert.Equal(t, result.EventID, msg.Event.EventID)
		assert.NotZero(t, msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a live notification, got none")
	}

	// The analytics registry saw the created event.
	top, err := registry.Top(analytics.Window1m, analytics.DimensionVerb, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "liked", top[0].Key)

	// A replay publishes nothing and records nothing.
	req.IdempotencyKey = "replay-key"
	_, err = svc.Ingest(ctx, req)
	require.NoError(t, err)
	<-sub.C // drain the second create's message
	_, err = svc.Ingest(ctx, req)
	require.NoError(t, err)

	select {
	case msg := <-sub.C:
		t.Fatalf("unexpected notification for replay: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
