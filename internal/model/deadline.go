package model

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceDeadline tracks a documentation obligation: a session happened,
// a note is due by DeadlineDate. IsMet flips false->true exactly once when
// the note is completed. The three reminder flags flip false->true exactly
// once each, written by the reminder dispatcher after a send succeeds. The
// compliance classifier reads these rows and never writes them.
type ComplianceDeadline struct {
	Base
	PracticeID         uuid.UUID  `db:"practice_id" json:"practice_id"`
	ProviderID         uuid.UUID  `db:"provider_id" json:"provider_id"`
	NoteType           string     `db:"note_type" json:"note_type"`
	DeadlineDate       time.Time  `db:"deadline_date" json:"deadline_date"`
	IsMet              bool       `db:"is_met" json:"is_met"`
	MetAt              *time.Time `db:"met_at" json:"met_at,omitempty"`
	NotesPending       int        `db:"notes_pending" json:"notes_pending"`
	NotesCompleted     int        `db:"notes_completed" json:"notes_completed"`
	ReminderSent24h    bool       `db:"reminder_sent_24h" json:"reminder_sent_24h"`
	ReminderSent48h    bool       `db:"reminder_sent_48h" json:"reminder_sent_48h"`
	ReminderSent72h    bool       `db:"reminder_sent_72h" json:"reminder_sent_72h"`
	SupervisorNotified bool       `db:"supervisor_notified" json:"supervisor_notified"`
}
