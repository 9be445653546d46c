package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a reminder id is unknown.
	ErrNotFound = errors.New("reminder not found")
	// ErrNoDraft is returned when a draft operation runs while the user is idle.
	ErrNoDraft = errors.New("no draft in progress")
)

// Persister writes and reads the whole store. Save always receives the
// complete snapshot; implementations rewrite everything they own.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Store owns every Reminder and UserState record. All reads and writes go
// through one mutex and every mutation persists the full snapshot before the
// lock is released.
type Store struct {
	mu        sync.Mutex
	users     map[int64]*UserState
	reminders map[string]*Reminder

	persister Persister
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty store backed by p. Call Load to restore
// previously persisted state.
func NewStore(p Persister, opts ...Option) *Store {
	s := &Store{
		users:     make(map[int64]*UserState),
		reminders: make(map[string]*Reminder),
		persister: p,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the persister holds.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[int64]*UserState, len(snap.Users))
	for id, u := range snap.Users {
		if u != nil {
			s.users[id] = u
		}
	}
	s.reminders = make(map[string]*Reminder, len(snap.Reminders))
	for id, r := range snap.Reminders {
		if r != nil {
			s.reminders[id] = r
		}
	}

	s.logger.Info("store loaded",
		zap.Int("users", len(s.users)),
		zap.Int("reminders", len(s.reminders)))
	return nil
}

// persistLocked must be called with s.mu held.
func (s *Store) persistLocked(ctx context.Context) error {
	snap := &Snapshot{Users: s.users, Reminders: s.reminders}
	if err := s.persister.Save(ctx, snap); err != nil {
		s.logger.Error("persist failed", zap.Error(err))
		return fmt.Errorf("failed to persist store: %w", err)
	}
	return nil
}

func (s *Store) userLocked(userID int64) *UserState {
	u, ok := s.users[userID]
	if !ok {
		u = &UserState{Tasks: []Item{}, Remembers: []Item{}}
		s.users[userID] = u
	}
	return u
}

// State returns a copy of the user's state. Unknown users are idle with
// empty lists.
func (s *Store) State(userID int64) UserState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return u.clone()
	}
	return UserState{Tasks: []Item{}, Remembers: []Item{}}
}

// BeginDraft records text as the item being scheduled and moves the user to
// StageAwaitingDate.
func (s *Store) BeginDraft(ctx context.Context, userID int64, text string, category Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userLocked(userID)
	u.DraftText = text
	u.DraftCategory = category
	u.Pending = Pending{Stage: StageAwaitingDate}
	return s.persistLocked(ctx)
}

// SetPendingDate stores the raw date text and moves the user to
// StageAwaitingTime.
func (s *Store) SetPendingDate(ctx context.Context, userID int64, dateText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.Pending.Stage == StageIdle {
		return ErrNoDraft
	}
	u.Pending = Pending{Stage: StageAwaitingTime, DateText: dateText}
	return s.persistLocked(ctx)
}

// RestartDraft discards the pending date text and asks for the date again,
// keeping the draft item.
func (s *Store) RestartDraft(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.Pending.Stage == StageIdle {
		return ErrNoDraft
	}
	u.Pending = Pending{Stage: StageAwaitingDate}
	return s.persistLocked(ctx)
}

// CompleteDraft turns the user's draft into a reminder due at dueAt and
// resets the user to idle.
func (s *Store) CompleteDraft(ctx context.Context, userID int64, dueAt time.Time) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.Pending.Stage == StageIdle {
		return Reminder{}, ErrNoDraft
	}

	category := u.DraftCategory
	if !category.Valid() {
		category = CategoryRemember
	}
	r := s.createLocked(userID, u.DraftText, category, dueAt)
	u.resetDraft()

	if err := s.persistLocked(ctx); err != nil {
		return Reminder{}, err
	}
	return *r, nil
}

// CreateReminder schedules a reminder and files a matching item in the
// user's task or remember list.
func (s *Store) CreateReminder(ctx context.Context, userID int64, text string, category Category, dueAt time.Time) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("invalid category %q", category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.createLocked(userID, text, category, dueAt)
	if err := s.persistLocked(ctx); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Store) createLocked(userID int64, text string, category Category, dueAt time.Time) *Reminder {
	created := s.now()
	id := reminderID(userID, created)
	for {
		if _, taken := s.reminders[id]; !taken {
			break
		}
		created = created.Add(time.Microsecond)
		id = reminderID(userID, created)
	}

	r := &Reminder{
		ID:        id,
		UserID:    userID,
		Text:      text,
		DueAt:     dueAt,
		Category:  category,
		CreatedAt: created,
	}
	s.reminders[id] = r

	item := Item{Text: text, DueAt: dueAt, ReminderID: id}
	u := s.userLocked(userID)
	if category == CategoryTask {
		u.Tasks = append(u.Tasks, item)
	} else {
		u.Remembers = append(u.Remembers, item)
	}

	s.logger.Debug("reminder created",
		zap.String("id", id),
		zap.Int64("user_id", userID),
		zap.String("category", string(category)),
		zap.Time("due_at", dueAt))
	return r
}

func reminderID(userID int64, created time.Time) string {
	return strconv.FormatInt(userID, 10) + "_" + strconv.FormatInt(created.UnixMicro(), 10)
}

// MarkAcknowledged acknowledges every pending reminder of the user and
// reports how many changed. Nothing is persisted when nothing changed.
func (s *Store) MarkAcknowledged(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.reminders {
		if r.UserID == userID && !r.Acknowledged {
			r.Acknowledged = true
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.persistLocked(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// ListByUser returns the user's reminders in creation order.
func (s *Store) ListByUser(userID int64) []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reminder
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sortByCreation(out)
	return out
}

// Tasks returns the user's task items in insertion order.
func (s *Store) Tasks(userID int64) []Item {
	return s.State(userID).Tasks
}

// Remembers returns the user's remember items in insertion order.
func (s *Store) Remembers(userID int64) []Item {
	return s.State(userID).Remembers
}

// Unacknowledged returns a snapshot of every reminder still eligible for
// notifications, across all users.
func (s *Store) Unacknowledged() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reminder
	for _, r := range s.reminders {
		if !r.Acknowledged && r.Stage < MaxStage {
			out = append(out, *r)
		}
	}
	sortByCreation(out)
	return out
}

// PendingReminders counts reminders that may still be notified.
func (s *Store) PendingReminders() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.reminders {
		if !r.Acknowledged && r.Stage < MaxStage {
			n++
		}
	}
	return n
}

// AdvanceStage moves a reminder from stage from to from+1. It reports false
// without error when the reminder already moved on or was acknowledged in
// the meantime.
func (s *Store) AdvanceStage(ctx context.Context, id string, from int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return false, ErrNotFound
	}
	if r.Acknowledged || r.Stage != from || r.Stage >= MaxStage {
		return false, nil
	}
	r.Stage = from + 1
	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Get returns a copy of one reminder.
func (s *Store) Get(id string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return *r, nil
}

// ClearUser removes all of the user's reminders and resets their state.
// Other users are untouched.
func (s *Store) ClearUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.reminders {
		if r.UserID == userID {
			delete(s.reminders, id)
		}
	}
	if _, ok := s.users[userID]; ok {
		s.users[userID] = &UserState{Tasks: []Item{}, Remembers: []Item{}}
	}
	return s.persistLocked(ctx)
}

func sortByCreation(rs []Reminder) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
