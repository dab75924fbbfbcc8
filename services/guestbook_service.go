package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Commit messages used for replicated writes.
const (
	VisitorChangeMessage  = "Add visitor entry"
	FeedbackChangeMessage = "Add feedback entry"
)

// ErrEmptyFeedback marks a feedback submission with no text left after
// sanitizing. It always comes wrapped in store.ErrValidation.
var ErrEmptyFeedback = errors.New("feedback is empty")

// ChangeNotifier schedules background replication of changed files. It must
// not block and has no way to report failure.
type ChangeNotifier interface {
	Enqueue(message string, paths []string)
}

// GuestbookConfig holds the domain limits of the guestbook.
type GuestbookConfig struct {
	MaxVisitors       int
	DuplicateWindow   time.Duration
	FeedbackMaxLength int
}

// DefaultGuestbookConfig returns the stock limits.
func DefaultGuestbookConfig() GuestbookConfig {
	return GuestbookConfig{
		MaxVisitors:       1000,
		DuplicateWindow:   60 * time.Minute,
		FeedbackMaxLength: types.MaxFeedbackLength,
	}
}

// GuestbookService applies the visitor and feedback write policies on top of
// the record stores and triggers replication after every successful write.
type GuestbookService struct {
	visitors store.RecordStore[types.Visitor]
	feedback store.RecordStore[types.Feedback]
	notifier ChangeNotifier
	policy   *bluemonday.Policy
	cfg      GuestbookConfig
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewGuestbookService wires the service. notifier may be nil.
func NewGuestbookService(
	visitors store.RecordStore[types.Visitor],
	feedback store.RecordStore[types.Feedback],
	notifier ChangeNotifier,
	cfg GuestbookConfig,
) *GuestbookService {
	return &GuestbookService{
		visitors: visitors,
		feedback: feedback,
		notifier: notifier,
		policy:   bluemonday.StrictPolicy(),
		cfg:      cfg,
		now:      time.Now,
		log:      logger.GetLogger().Named("guestbook"),
	}
}

// SetClock replaces the time source used for record timestamps and the
// duplicate window.
func (s *GuestbookService) SetClock(now func() time.Time) {
	s.now = now
}

// sanitize trims, strips all markup and trims again. Characters such as &
// stay HTML-escaped, and length limits apply to the escaped form.
func (s *GuestbookService) sanitize(in string) string {
	return strings.TrimSpace(s.policy.Sanitize(strings.TrimSpace(in)))
}

func (s *GuestbookService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// SaveVisitor records a visitor and returns the number of stored visitors.
func (s *GuestbookService) SaveVisitor(ctx context.Context, name *string, originIP string) (int, error) {
	if name == nil {
		return 0, fmt.Errorf("%w: name is required", store.ErrValidation)
	}
	clean := s.sanitize(*name)
	if clean == "" {
		return 0, fmt.Errorf("%w: name is empty", store.ErrValidation)
	}
	if utf8.RuneCountInString(clean) > types.MaxVisitorNameLength {
		return 0, fmt.Errorf("%w: name is longer than %d characters", store.ErrValidation, types.MaxVisitorNameLength)
	}

	record := types.Visitor{Name: clean, Timestamp: s.timestamp(), OriginIP: originIP}
	updated, err := s.visitors.Append(ctx, record, store.AppendPolicy[types.Visitor]{
		Validate:   s.rejectDuplicate,
		MaxRecords: s.cfg.MaxVisitors,
	})
	if err != nil {
		return 0, err
	}

	s.log.Infow("Visitor saved", "total", len(updated))
	s.notify(VisitorChangeMessage, s.visitors.Paths())
	return len(updated), nil
}

// rejectDuplicate runs under the store's write lock, so two identical
// submissions cannot both pass.
func (s *GuestbookService) rejectDuplicate(existing []types.Visitor, record types.Visitor) error {
	if s.cfg.DuplicateWindow <= 0 {
		return nil
	}
	for i := len(existing) - 1; i >= 0; i-- {
		if existing[i].Name != record.Name {
			continue
		}
		if record.Timestamp.Sub(existing[i].Timestamp) < s.cfg.DuplicateWindow {
			return fmt.Errorf("%w: %q was already signed within %s", store.ErrRateLimited, record.Name, s.cfg.DuplicateWindow)
		}
		return nil
	}
	return nil
}

// ListVisitors returns all visitors in insertion order without their origin address.
func (s *GuestbookService) ListVisitors(ctx context.Context) ([]types.VisitorView, error) {
	records, err := s.visitors.Load(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]types.VisitorView, len(records))
	for i, v := range records {
		views[i] = v.View()
	}
	return views, nil
}

// SubmitFeedback records a feedback entry.
func (s *GuestbookService) SubmitFeedback(ctx context.Context, text *string) error {
	if text == nil {
		return fmt.Errorf("%w: feedback is required", store.ErrValidation)
	}
	clean := s.sanitize(*text)
	if clean == "" {
		return fmt.Errorf("%w: %w", store.ErrValidation, ErrEmptyFeedback)
	}
	if s.cfg.FeedbackMaxLength > 0 && utf8.RuneCountInString(clean) > s.cfg.FeedbackMaxLength {
		return fmt.Errorf("%w: feedback is longer than %d characters", store.ErrValidation, s.cfg.FeedbackMaxLength)
	}

	record := types.Feedback{Text: clean, Timestamp: s.timestamp()}
	if _, err := s.feedback.Append(ctx, record, store.AppendPolicy[types.Feedback]{}); err != nil {
		return err
	}

	s.log.Info("Feedback saved")
	s.notify(FeedbackChangeMessage, s.feedback.Paths())
	return nil
}

// ListFeedback returns all feedback entries in insertion order.
func (s *GuestbookService) ListFeedback(ctx context.Context) ([]types.Feedback, error) {
	return s.feedback.Load(ctx)
}

func (s *GuestbookService) notify(message string, paths []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(message, paths)
}
