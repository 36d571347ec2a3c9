package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/kartohq/iam/internal/authz"
	"github.com/kartohq/iam/internal/domain/event"
	"github.com/kartohq/iam/internal/domainerr"
	"github.com/kartohq/iam/internal/outbox"
	"github.com/kartohq/iam/internal/outbox/translate"
	"github.com/kartohq/iam/internal/platform/log"
)

func newTestWorker(t *testing.T) (*Worker, *outbox.MockRepository, *authz.MockEngine) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := outbox.NewMockRepository(ctrl)
	engine := authz.NewMockEngine(ctrl)

	w := &Worker{
		repo:       repo,
		engine:     engine,
		translator: translate.DefaultComposite(),
		cfg:        DefaultConfig(),
		logger:     &log.NoneLogger{},
	}

	return w, repo, engine
}

func TestCalculateBackoff_DoublesUntilCap(t *testing.T) {
	base := 500 * time.Millisecond
	max := 5 * time.Second

	assert.Equal(t, base, calculateBackoff(1, base, max))
	assert.Equal(t, 2*base, calculateBackoff(2, base, max))
	assert.Equal(t, 4*base, calculateBackoff(3, base, max))
	assert.Equal(t, max, calculateBackoff(100, base, max))
}

func TestProcessEntry_AppliesAndMarksProcessed(t *testing.T) {
	w, repo, engine := newTestWorker(t)
	entry := outbox.Entry{EventType: event.TypeAPIKeyRevoked, Payload: []byte(`{"api_key_id":"k1","occurred_at":"2024-01-01T00:00:00Z"}`)}

	repo.EXPECT().MarkProcessed(gomock.Any(), gomock.Any(), entry.ID).Return(nil)

	w.processEntry(context.Background(), entry)
	_ = engine // APIKeyRevoked produces zero ops, so engine.Apply is never called.
}

func TestProcessEntry_TransientFailureRecordsRetry(t *testing.T) {
	w, repo, engine := newTestWorker(t)
	entry := outbox.Entry{
		EventType: event.TypeTenantMemberAdded,
		Payload:   []byte(`{"tenant_id":"t1","user_id":"u1","role":"admin","occurred_at":"2024-01-01T00:00:00Z"}`),
	}

	engine.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(domainerr.NewAuthorizationEngineError(errors.New("timeout"), false))
	repo.EXPECT().RecordFailure(gomock.Any(), gomock.Any(), entry.ID, gomock.Any(), 1, w.cfg.MaxAttempts, gomock.Any()).Return(nil)

	w.processEntry(context.Background(), entry)
}

func TestProcessEntry_PermanentFailureQuarantinesImmediately(t *testing.T) {
	w, repo, engine := newTestWorker(t)
	entry := outbox.Entry{
		EventType: event.TypeTenantMemberAdded,
		Payload:   []byte(`{"tenant_id":"t1","user_id":"u1","role":"admin","occurred_at":"2024-01-01T00:00:00Z"}`),
	}

	engine.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(domainerr.NewAuthorizationEngineError(errors.New("invalid relation"), true))
	repo.EXPECT().RecordFailure(gomock.Any(), gomock.Any(), entry.ID, gomock.Any(), w.cfg.MaxAttempts, w.cfg.MaxAttempts, gomock.Any()).Return(nil)

	w.processEntry(context.Background(), entry)
}

func TestProcessEntry_UnknownEventTypeQuarantinesWithoutCallingEngine(t *testing.T) {
	w, repo, _ := newTestWorker(t)
	entry := outbox.Entry{EventType: event.Type("Bogus"), Payload: []byte(`{}`)}

	repo.EXPECT().RecordFailure(gomock.Any(), gomock.Any(), entry.ID, gomock.Any(), w.cfg.MaxAttempts, w.cfg.MaxAttempts, gomock.Any()).Return(nil)

	ok := w.processEntry(context.Background(), entry)
	assert.False(t, ok)
}

// TestApplyEntries_BlockedAggregateSkipsLaterEntries pins the ordering
// guarantee in spec.md §4.3: once an entry for an aggregate fails within a
// pass, later entries for that same aggregate are skipped, while entries
// for other aggregates still proceed.
func TestApplyEntries_BlockedAggregateSkipsLaterEntries(t *testing.T) {
	w, repo, engine := newTestWorker(t)

	failing := outbox.Entry{
		AggregateID: "agg-a",
		EventType:   event.TypeTenantMemberAdded,
		Payload:     []byte(`{"tenant_id":"t1","user_id":"u1","role":"admin","occurred_at":"2024-01-01T00:00:00Z"}`),
	}
	laterSameAgg := outbox.Entry{
		AggregateID: "agg-a",
		EventType:   event.TypeTenantMemberAdded,
		Payload:     []byte(`{"tenant_id":"t1","user_id":"u2","role":"member","occurred_at":"2024-01-01T00:01:00Z"}`),
	}
	otherAgg := outbox.Entry{
		AggregateID: "agg-b",
		EventType:   event.TypeTenantMemberAdded,
		Payload:     []byte(`{"tenant_id":"t1","user_id":"u3","role":"member","occurred_at":"2024-01-01T00:01:00Z"}`),
	}

	// failing entry: permanent authz error, quarantined, engine called once.
	engine.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(
		domainerr.NewAuthorizationEngineError(errors.New("invalid relation"), true))
	repo.EXPECT().RecordFailure(gomock.Any(), gomock.Any(), failing.ID, gomock.Any(), w.cfg.MaxAttempts, w.cfg.MaxAttempts, gomock.Any()).Return(nil)

	// otherAgg is unaffected: engine applies it and it is marked processed.
	engine.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().MarkProcessed(gomock.Any(), gomock.Any(), otherAgg.ID).Return(nil)

	entries := []outbox.Entry{failing, laterSameAgg, otherAgg}
	blocked := make(map[string]bool)
	for _, entry := range entries {
		if blocked[entry.AggregateID] {
			continue
		}
		if !w.processEntry(context.Background(), entry) {
			blocked[entry.AggregateID] = true
		}
	}

	assert.True(t, blocked["agg-a"])
	assert.False(t, blocked["agg-b"])
}
