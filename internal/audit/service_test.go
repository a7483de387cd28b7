package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warelane/warelane/internal/audit"
	"github.com/warelane/warelane/internal/shared"
)

type memoryRepo struct {
	excluded map[string]bool
	sessions []audit.SessionRecord
	actions  []audit.ActionRecord
	active   map[string]string
	ended    []string
}

func newRepo() *memoryRepo {
	return &memoryRepo{excluded: map[string]bool{}, active: map[string]string{}}
}

func (m *memoryRepo) IsExcluded(ctx context.Context, userID string) (bool, error) {
	return m.excluded[userID], nil
}

func (m *memoryRepo) ActiveSession(ctx context.Context, userID string) (string, error) {
	return m.active[userID], nil
}

func (m *memoryRepo) InsertSession(ctx context.Context, rec audit.SessionRecord) error {
	m.sessions = append(m.sessions, rec)
	return nil
}

func (m *memoryRepo) InsertAction(ctx context.Context, rec audit.ActionRecord) error {
	m.actions = append(m.actions, rec)
	return nil
}

func (m *memoryRepo) EndOpenSessions(ctx context.Context, userID string, endedAt time.Time) error {
	m.ended = append(m.ended, userID)
	delete(m.active, userID)
	return nil
}

func (m *memoryRepo) RecentSessions(ctx context.Context, limit int) ([]audit.SessionRecord, error) {
	if limit < len(m.sessions) {
		return m.sessions[:limit], nil
	}
	return m.sessions, nil
}

func (m *memoryRepo) SessionActions(ctx context.Context, sessionID string) ([]audit.ActionRecord, error) {
	var out []audit.ActionRecord
	for _, a := range m.actions {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryQueue struct {
	sessions []audit.SessionRecord
	actions  []audit.ActionRecord
}

func (q *memoryQueue) EnqueueSessionStart(ctx context.Context, rec audit.SessionRecord) error {
	q.sessions = append(q.sessions, rec)
	return nil
}

func (q *memoryQueue) EnqueueAction(ctx context.Context, rec audit.ActionRecord) error {
	q.actions = append(q.actions, rec)
	return nil
}

func newService(repo *memoryRepo, queue *memoryQueue) *audit.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return audit.NewService(repo, queue, logger)
}

func userContext(userID string) context.Context {
	sess := &shared.Session{}
	sess.SetUser(userID, "viewer")
	return shared.ContextWithSession(context.Background(), sess)
}

func TestSessionStartedQueuesNewSession(t *testing.T) {
	repo := newRepo()
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.SessionStarted(context.Background(), "u1", "10.0.0.1", "Mozilla/5.0 (Windows NT 10.0)")

	require.Len(t, queue.sessions, 1)
	rec := queue.sessions[0]
	require.Equal(t, "u1", rec.UserID)
	require.Equal(t, "desktop", rec.DeviceType)
	require.NotEmpty(t, rec.ID)
}

func TestSessionStartedClassifiesMobile(t *testing.T) {
	queue := &memoryQueue{}
	svc := newService(newRepo(), queue)

	svc.SessionStarted(context.Background(), "u1", "10.0.0.1", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)")

	require.Len(t, queue.sessions, 1)
	require.Equal(t, "mobile", queue.sessions[0].DeviceType)
}

func TestSessionStartedSkipsExcludedUser(t *testing.T) {
	repo := newRepo()
	repo.excluded["u1"] = true
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.SessionStarted(context.Background(), "u1", "10.0.0.1", "agent")

	require.Empty(t, queue.sessions)
}

func TestSessionStartedReusesOpenSession(t *testing.T) {
	repo := newRepo()
	repo.active["u1"] = "sess-open"
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.SessionStarted(context.Background(), "u1", "10.0.0.1", "agent")
	require.Empty(t, queue.sessions)

	// Actions attach to the reused session.
	svc.Action(userContext("u1"), "view_inventory", nil)
	require.Len(t, queue.actions, 1)
	require.Equal(t, "sess-open", queue.actions[0].SessionID)
}

func TestActionDropsUnlistedType(t *testing.T) {
	repo := newRepo()
	repo.active["u1"] = "sess-1"
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.Action(userContext("u1"), "clicked_random_button", map[string]any{"x": 1})

	require.Empty(t, queue.actions)
}

func TestActionSkipsExcludedUser(t *testing.T) {
	repo := newRepo()
	repo.active["u1"] = "sess-1"
	repo.excluded["u1"] = true
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.Action(userContext("u1"), "view_inventory", nil)

	require.Empty(t, queue.actions)
}

func TestActionWithoutSignedInUserIsDropped(t *testing.T) {
	queue := &memoryQueue{}
	svc := newService(newRepo(), queue)

	svc.Action(context.Background(), "view_inventory", nil)

	require.Empty(t, queue.actions)
}

func TestActionCarriesDetails(t *testing.T) {
	repo := newRepo()
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.SessionStarted(context.Background(), "u1", "10.0.0.1", "agent")
	svc.Action(userContext("u1"), "create_transaction", map[string]any{"reference": "IB-100001"})

	require.Len(t, queue.actions, 1)
	require.Equal(t, "create_transaction", queue.actions[0].ActionType)
	require.Equal(t, "IB-100001", queue.actions[0].Details["reference"])
	require.Equal(t, queue.sessions[0].ID, queue.actions[0].SessionID)
}

func TestSessionEndedClosesOpenSessions(t *testing.T) {
	repo := newRepo()
	repo.active["u1"] = "sess-1"
	queue := &memoryQueue{}
	svc := newService(repo, queue)

	svc.SessionEnded(context.Background(), "u1")

	require.Equal(t, []string{"u1"}, repo.ended)
}

func TestTrackableWhitelist(t *testing.T) {
	require.True(t, audit.Trackable("sign_in"))
	require.True(t, audit.Trackable("generate_adjustment"))
	require.False(t, audit.Trackable("drop_table"))
}
