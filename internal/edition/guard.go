package edition

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MaxTitleLength   = 255
	MaxSummaryLength = 1000
)

// Kind names a requested transition.
type Kind string

const (
	KindSubmit           Kind = "submit"
	KindPublishNow       Kind = "publish-now"
	KindSchedule         Kind = "schedule"
	KindPublishScheduled Kind = "publish-scheduled"
	KindUnschedule       Kind = "unschedule"
	KindReject           Kind = "reject"
	KindUnpublish        Kind = "unpublish"
	KindDelete           Kind = "delete"
	KindRestore          Kind = "restore"
)

// Verb is the word used in failure messages ("publish failed: ...").
func (k Kind) Verb() string {
	switch k {
	case KindPublishNow, KindPublishScheduled:
		return "publish"
	case KindSchedule:
		return "schedule"
	case KindUnschedule:
		return "unschedule"
	case KindReject:
		return "reject"
	case KindUnpublish:
		return "unpublish"
	case KindSubmit:
		return "submit"
	}
	return string(k)
}

// Input carries the caller-supplied parts of a transition request that
// preconditions look at.
type Input struct {
	Reason           string
	Unpublishing     UnpublishingReason
	Explanation      string
	AlternativeURL   string
	OverrideSchedule bool
}

// Snapshot is the read-only view a guard evaluates. Siblings are the other
// editions of the same document.
type Snapshot struct {
	Edition  *Edition
	Document *Document
	Siblings []*Edition
	Input    Input
	Now      time.Time
}

// Live returns the document's live edition when it is among the siblings.
func (s Snapshot) Live() *Edition {
	if s.Document == nil || s.Document.LiveEditionID == "" {
		return nil
	}
	for _, e := range s.Siblings {
		if e.ID == s.Document.LiveEditionID {
			return e
		}
	}
	return nil
}

// Precondition is one named check. Check returns an empty string when the
// precondition holds, otherwise the human readable reason it does not.
type Precondition struct {
	Name  string
	Check func(Snapshot) string
}

// Guard is an ordered list of preconditions for one transition kind.
type Guard []Precondition

// Result lists every failed precondition, in guard order.
type Result struct {
	Failed  []string `json:"failed,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

func (r Result) Allowed() bool { return len(r.Reasons) == 0 }

// Evaluate runs all preconditions; it does not stop at the first failure.
func (g Guard) Evaluate(s Snapshot) Result {
	var res Result
	for _, p := range g {
		if reason := p.Check(s); reason != "" {
			res.Failed = append(res.Failed, p.Name)
			res.Reasons = append(res.Reasons, reason)
		}
	}
	return res
}

// With returns a copy of g with extra preconditions appended.
func (g Guard) With(extra ...Precondition) Guard {
	out := make(Guard, 0, len(g)+len(extra))
	out = append(out, g...)
	return append(out, extra...)
}

// GuardFor returns the precondition list for kind, or nil for an unknown kind.
func GuardFor(kind Kind) Guard {
	switch kind {
	case KindSubmit:
		return Guard{stateIn(KindSubmit, StateDraft, StateRejected), contentValid}
	case KindPublishNow:
		return Guard{publishableNow, notDeleted, contentValid, changeNotePresent, notOlderThanLive}
	case KindSchedule:
		return Guard{stateIn(KindSchedule, StateSubmitted), scheduleSet, scheduleInFuture, contentValid, changeNotePresent, noOtherScheduled, notOlderThanLive}
	case KindPublishScheduled:
		return Guard{scheduledForPublication, notTooEarly, notOlderThanLive}
	case KindUnschedule:
		return Guard{stateIn(KindUnschedule, StateScheduled)}
	case KindReject:
		return Guard{stateIn(KindReject, StateSubmitted), reasonGiven}
	case KindUnpublish:
		return Guard{stateIn(KindUnpublish, StatePublished), isLive, unpublishingReasonKnown, explanationForWithdrawal, alternativeURLForConsolidation}
	case KindDelete:
		return Guard{notAlreadyDeleted}
	case KindRestore:
		return Guard{deletionRecorded, noOtherLive, noOtherScheduledOnRestore}
	}
	return nil
}

// CanTransition is the guard entry point used by callers that only need a
// yes/no with reasons.
func CanTransition(s Snapshot, kind Kind) (bool, []string) {
	g := GuardFor(kind)
	if g == nil {
		return false, []string{fmt.Sprintf("Unknown transition %q", kind)}
	}
	res := g.Evaluate(s)
	return res.Allowed(), res.Reasons
}

func stateIn(kind Kind, allowed ...State) Precondition {
	return Precondition{
		Name: "state",
		Check: func(s Snapshot) string {
			for _, st := range allowed {
				if s.Edition.State == st {
					return ""
				}
			}
			return fmt.Sprintf("An edition that is %s cannot be %s", s.Edition.State, pastParticiple(kind))
		},
	}
}

func pastParticiple(kind Kind) string {
	switch kind {
	case KindSubmit:
		return "submitted"
	case KindSchedule:
		return "scheduled"
	case KindUnschedule:
		return "unscheduled"
	case KindReject:
		return "rejected"
	case KindUnpublish:
		return "unpublished"
	case KindDelete:
		return "deleted"
	case KindRestore:
		return "restored"
	}
	return "published"
}

var publishableNow = Precondition{
	Name: "state",
	Check: func(s Snapshot) string {
		switch s.Edition.State {
		case StateSubmitted:
			return ""
		case StateScheduled:
			if s.Input.OverrideSchedule {
				return ""
			}
			return fmt.Sprintf("This edition is scheduled for publication on %s; publishing it now needs the schedule override", formatTime(s.Edition.ScheduledPublication))
		}
		return fmt.Sprintf("An edition that is %s cannot be published", s.Edition.State)
	},
}

var notDeleted = Precondition{
	Name: "not-deleted",
	Check: func(s Snapshot) string {
		if s.Edition.Deletion != nil {
			return "This edition has been deleted"
		}
		return ""
	},
}

var contentValid = Precondition{
	Name: "content-valid",
	Check: func(s Snapshot) string {
		if err := ValidateContent(s.Edition); err != nil {
			return "This edition is invalid: " + err.Error()
		}
		return ""
	},
}

// ValidateContent checks the fields an edition needs before it can leave draft.
func ValidateContent(e *Edition) error {
	c := *e
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&c.Body, validation.Required),
		validation.Field(&c.Summary, validation.Length(0, MaxSummaryLength)),
	)
}

var changeNotePresent = Precondition{
	Name: "change-note",
	Check: func(s Snapshot) string {
		e := s.Edition
		if e.IsFirstVersion() || e.MinorChange || e.ChangeNote != "" {
			return ""
		}
		return "Change note can't be blank for a major change"
	},
}

var notOlderThanLive = Precondition{
	Name: "not-older-than-live",
	Check: func(s Snapshot) string {
		live := s.Live()
		if live == nil || live.ID == s.Edition.ID {
			return ""
		}
		if live.Version > s.Edition.Version {
			return fmt.Sprintf("A newer edition (version %d) of this document is already published", live.Version)
		}
		return ""
	},
}

var noOtherScheduled = Precondition{
	Name: "single-scheduled",
	Check: func(s Snapshot) string {
		for _, sib := range s.Siblings {
			if sib.ID != s.Edition.ID && sib.State == StateScheduled {
				return "Another edition of this document is already scheduled for publication"
			}
		}
		return ""
	},
}

var scheduleSet = Precondition{
	Name: "schedule-set",
	Check: func(s Snapshot) string {
		if s.Edition.ScheduledPublication == nil {
			return "A scheduled publication time must be set"
		}
		return ""
	},
}

var scheduleInFuture = Precondition{
	Name: "schedule-in-future",
	Check: func(s Snapshot) string {
		at := s.Edition.ScheduledPublication
		if at != nil && !at.After(s.Now) {
			return fmt.Sprintf("Scheduled publication time %s must be in the future", formatTime(at))
		}
		return ""
	},
}

var scheduledForPublication = Precondition{
	Name: "scheduled",
	Check: func(s Snapshot) string {
		if !isScheduledForPublication(s.Edition) {
			return "Only scheduled editions can be published by the scheduled publisher"
		}
		return ""
	},
}

// notTooEarly only speaks up when the edition really is scheduled, so a
// wrong-state edition never also reports "too early".
var notTooEarly = Precondition{
	Name: "not-too-early",
	Check: func(s Snapshot) string {
		e := s.Edition
		if isScheduledForPublication(e) && e.ScheduledPublication.After(s.Now) {
			return fmt.Sprintf("This edition is scheduled for publication on %s, and may not be published before", formatTime(e.ScheduledPublication))
		}
		return ""
	},
}

func isScheduledForPublication(e *Edition) bool {
	return e.State == StateScheduled && e.ScheduledPublication != nil && e.Deletion == nil
}

var reasonGiven = Precondition{
	Name: "reason",
	Check: func(s Snapshot) string {
		if s.Input.Reason == "" {
			return "A reason must be given"
		}
		return ""
	},
}

var isLive = Precondition{
	Name: "live",
	Check: func(s Snapshot) string {
		if s.Document == nil || s.Document.LiveEditionID != s.Edition.ID {
			return "Only the live edition of a document can be unpublished"
		}
		return ""
	},
}

var unpublishingReasonKnown = Precondition{
	Name: "unpublishing-reason",
	Check: func(s Snapshot) string {
		if !s.Input.Unpublishing.Valid() {
			return fmt.Sprintf("Unpublishing reason %q is not recognised", s.Input.Unpublishing)
		}
		return ""
	},
}

var explanationForWithdrawal = Precondition{
	Name: "withdrawal-explanation",
	Check: func(s Snapshot) string {
		if s.Input.Unpublishing == ReasonWithdrawn && s.Input.Explanation == "" {
			return "A public explanation must be given when withdrawing"
		}
		return ""
	},
}

var alternativeURLForConsolidation = Precondition{
	Name: "consolidation-url",
	Check: func(s Snapshot) string {
		if s.Input.Unpublishing == ReasonConsolidated && s.Input.AlternativeURL == "" {
			return "An alternative URL must be given when consolidating"
		}
		return ""
	},
}

var notAlreadyDeleted = Precondition{
	Name: "not-deleted",
	Check: func(s Snapshot) string {
		if s.Edition.State == StateDeleted {
			return "This edition has already been deleted"
		}
		return ""
	},
}

var deletionRecorded = Precondition{
	Name: "deletion-record",
	Check: func(s Snapshot) string {
		if s.Edition.State != StateDeleted || s.Edition.Deletion == nil {
			return "Only a deleted edition can be restored"
		}
		return ""
	},
}

// noOtherLive applies when the restored edition would be live again.
var noOtherLive = Precondition{
	Name: "no-other-live",
	Check: func(s Snapshot) string {
		d := s.Edition.Deletion
		if d == nil || (!d.WasLive && d.PriorState != StatePublished) {
			return ""
		}
		for _, sib := range s.Siblings {
			if sib.State == StatePublished {
				return "Another edition of this document is published"
			}
		}
		if s.Document != nil && s.Document.LiveEditionID != "" && s.Document.LiveEditionID != s.Edition.ID {
			return "Another edition of this document is published"
		}
		return ""
	},
}

// noOtherScheduledOnRestore applies when the restored edition would be
// scheduled again.
var noOtherScheduledOnRestore = Precondition{
	Name: "single-scheduled",
	Check: func(s Snapshot) string {
		d := s.Edition.Deletion
		if d == nil || d.PriorState != StateScheduled {
			return ""
		}
		return noOtherScheduled.Check(s)
	},
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "an unknown date"
	}
	return t.UTC().Format(time.RFC3339)
}
