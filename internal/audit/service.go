package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warelane/warelane/internal/shared"
)

// Enqueuer hands telemetry writes to the background queue. Session
// inserts are delayed briefly so a bouncing login does not create a
// burst of near-duplicate rows.
type Enqueuer interface {
	EnqueueSessionStart(ctx context.Context, rec SessionRecord) error
	EnqueueAction(ctx context.Context, rec ActionRecord) error
}

// Service tracks user sessions and actions. Excluded users are never
// recorded; unknown action types are dropped.
type Service struct {
	repo   Repository
	queue  Enqueuer
	logger *slog.Logger
	clock  func() time.Time

	mu       sync.Mutex
	current  map[string]string
	inFlight map[string]bool
}

// NewService constructs the telemetry service.
func NewService(repo Repository, queue Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		queue:    queue,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
		current:  make(map[string]string),
		inFlight: make(map[string]bool),
	}
}

// SessionStarted opens a tracked session for the user after a login.
// Reuses an open session when one exists, otherwise queues a new row.
func (s *Service) SessionStarted(ctx context.Context, userID, ip, userAgent string) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	if s.inFlight[userID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[userID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, userID)
		s.mu.Unlock()
	}()

	excluded, err := s.repo.IsExcluded(ctx, userID)
	if err != nil {
		s.logger.Warn("telemetry exclusion check failed", slog.Any("error", err))
		return
	}
	if excluded {
		return
	}

	existing, err := s.repo.ActiveSession(ctx, userID)
	if err != nil {
		s.logger.Warn("telemetry active session lookup failed", slog.Any("error", err))
		return
	}
	if existing != "" {
		s.remember(userID, existing)
		return
	}

	rec := SessionRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		DeviceType: DeviceTypeFromUserAgent(userAgent),
		StartedAt:  s.clock(),
	}
	if err := s.queue.EnqueueSessionStart(ctx, rec); err != nil {
		s.logger.Warn("telemetry session enqueue failed", slog.Any("error", err))
		return
	}
	s.remember(userID, rec.ID)
}

// SessionEnded closes the user's open sessions. Runs synchronously so a
// logout is final even when the queue is down.
func (s *Service) SessionEnded(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := s.repo.EndOpenSessions(ctx, userID, s.clock()); err != nil {
		s.logger.Warn("telemetry session close failed", slog.Any("error", err))
	}
	s.mu.Lock()
	delete(s.current, userID)
	s.mu.Unlock()
}

// Action records a whitelisted action against the caller's tracked
// session. The caller is read from the request session in ctx; calls
// without a tracked session are dropped.
func (s *Service) Action(ctx context.Context, actionType string, details map[string]any) {
	if !Trackable(actionType) {
		return
	}
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return
	}
	userID := sess.User()
	if userID == "" {
		return
	}

	sessionID := s.sessionFor(ctx, userID)
	if sessionID == "" {
		return
	}

	excluded, err := s.repo.IsExcluded(ctx, userID)
	if err != nil {
		s.logger.Warn("telemetry exclusion check failed", slog.Any("error", err))
		return
	}
	if excluded {
		return
	}

	rec := ActionRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		ActionType: actionType,
		Details:    details,
		CreatedAt:  s.clock(),
	}
	if err := s.queue.EnqueueAction(ctx, rec); err != nil {
		s.logger.Warn("telemetry action enqueue failed", slog.Any("error", err))
	}
}

// Sessions lists recent sessions for the admin telemetry view.
func (s *Service) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.RecentSessions(ctx, limit)
}

// Actions lists a session's recorded actions.
func (s *Service) Actions(ctx context.Context, sessionID string) ([]ActionRecord, error) {
	return s.repo.SessionActions(ctx, sessionID)
}

func (s *Service) remember(userID, sessionID string) {
	s.mu.Lock()
	s.current[userID] = sessionID
	s.mu.Unlock()
}

// sessionFor resolves the tracked session id for a user, falling back
// to the store when this process has not seen the login.
func (s *Service) sessionFor(ctx context.Context, userID string) string {
	s.mu.Lock()
	id := s.current[userID]
	s.mu.Unlock()
	if id != "" {
		return id
	}

	id, err := s.repo.ActiveSession(ctx, userID)
	if err != nil {
		s.logger.Warn("telemetry active session lookup failed", slog.Any("error", err))
		return ""
	}
	if id != "" {
		s.remember(userID, id)
	}
	return id
}
