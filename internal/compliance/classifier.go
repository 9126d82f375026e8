// Package compliance classifies documentation deadlines for dashboards and
// the reminder dispatcher. Classification is pure: it reads a deadline row
// and a clock value and reports status plus which reminder thresholds are
// due. Writing the sent flags back is the dispatcher's job, never this
// package's.
package compliance

import (
	"time"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
)

// Status is the dashboard badge for a deadline.
type Status string

const (
	StatusMet     Status = "met"
	StatusOverdue Status = "overdue"
	StatusUrgent  Status = "urgent"
	StatusPending Status = "pending"
)

// ReminderThreshold is how far before the deadline a reminder fires.
type ReminderThreshold time.Duration

const (
	Reminder72h ReminderThreshold = ReminderThreshold(72 * time.Hour)
	Reminder48h ReminderThreshold = ReminderThreshold(48 * time.Hour)
	Reminder24h ReminderThreshold = ReminderThreshold(24 * time.Hour)
)

// thresholds is ordered largest-to-smallest; each is evaluated
// independently, so a deadline can owe several reminders at once.
var thresholds = []ReminderThreshold{Reminder72h, Reminder48h, Reminder24h}

func (t ReminderThreshold) Duration() time.Duration { return time.Duration(t) }

func (t ReminderThreshold) String() string {
	switch t {
	case Reminder72h:
		return "72h"
	case Reminder48h:
		return "48h"
	case Reminder24h:
		return "24h"
	}
	return time.Duration(t).String()
}

// Classification is the classifier's advisory output.
type Classification struct {
	Status Status `json:"status"`

	// DueReminders lists thresholds that have been crossed but whose
	// sent flag is still false, largest first. Empty once the deadline
	// is met.
	DueReminders []ReminderThreshold `json:"due_reminders"`
}

// Classify computes the status of a deadline at now.
//
// Status is decided by strict precedence: met, then overdue, then urgent
// (24 hours or less remaining), then pending. All time comparisons are
// inclusive at the boundary so a reminder never silently skips a scan that
// lands exactly on its threshold.
//
// A deadline that is already overdue still reports unsent thresholds: a
// missed reminder fires late rather than being dropped.
func Classify(d model.ComplianceDeadline, now time.Time) Classification {
	c := Classification{Status: statusOf(d, now)}
	if d.IsMet {
		return c
	}

	remaining := d.DeadlineDate.Sub(now)
	for _, t := range thresholds {
		if remaining <= t.Duration() && !sentFlag(d, t) {
			c.DueReminders = append(c.DueReminders, t)
		}
	}
	return c
}

func statusOf(d model.ComplianceDeadline, now time.Time) Status {
	switch {
	case d.IsMet:
		return StatusMet
	case !now.Before(d.DeadlineDate):
		return StatusOverdue
	case d.DeadlineDate.Sub(now) <= Reminder24h.Duration():
		return StatusUrgent
	default:
		return StatusPending
	}
}

func sentFlag(d model.ComplianceDeadline, t ReminderThreshold) bool {
	switch t {
	case Reminder72h:
		return d.ReminderSent72h
	case Reminder48h:
		return d.ReminderSent48h
	case Reminder24h:
		return d.ReminderSent24h
	}
	return false
}
