package reminder

import "time"

// Category is the bucket a message is filed under.
type Category string

// Categories produced by Classify.
const (
	CategoryTask     Category = "task"
	CategoryRemember Category = "remember"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryTask || c == CategoryRemember
}

// MaxStage is the number of staged notifications a reminder can receive.
const MaxStage = 3

// Reminder represents a scheduled due-time notification for one user.
type Reminder struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Text         string    `json:"text"`
	DueAt        time.Time `json:"due_at"`
	Category     Category  `json:"category"`
	Stage        int       `json:"notification_stage"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// Item is a task or remember entry shown in list views.
type Item struct {
	Text       string    `json:"text"`
	DueAt      time.Time `json:"due_at"`
	ReminderID string    `json:"reminder_id"`
}

// Stage of the date/time capture dialogue.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingDate
	StageAwaitingTime
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingDate:
		return "awaiting_date"
	case StageAwaitingTime:
		return "awaiting_time"
	default:
		return "idle"
	}
}

// Pending is the tagged conversation state of a user. DateText is only
// meaningful in StageAwaitingTime.
type Pending struct {
	Stage    Stage  `json:"stage"`
	DateText string `json:"date_text,omitempty"`
}

// UserState holds the per-user lists and the in-progress draft.
// DraftText and DraftCategory are set iff Pending.Stage is not StageIdle.
type UserState struct {
	Tasks         []Item   `json:"tasks"`
	Remembers     []Item   `json:"remembers"`
	Pending       Pending  `json:"pending"`
	DraftText     string   `json:"draft_text,omitempty"`
	DraftCategory Category `json:"draft_category,omitempty"`
}

func (u *UserState) clone() UserState {
	out := *u
	out.Tasks = append([]Item(nil), u.Tasks...)
	out.Remembers = append([]Item(nil), u.Remembers...)
	return out
}

func (u *UserState) resetDraft() {
	u.Pending = Pending{Stage: StageIdle}
	u.DraftText = ""
	u.DraftCategory = ""
}

// Snapshot is the full persisted state: users keyed by id and reminders
// keyed by reminder id.
type Snapshot struct {
	Users     map[int64]*UserState
	Reminders map[string]*Reminder
}
