package reminder

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
)

// Kind distinguishes the two reminder flavours.
type Kind string

const (
	KindReview       Kind = "review"
	KindConsultation Kind = "consultation"
)

// ErrConflict is returned when a subject changed between read and write.
var ErrConflict = fmt.Errorf("reminder subject changed concurrently: %w", edition.ErrConflict)

// Subject is a document with a deadline someone has to be reminded about.
// For a consultation Deadline is the closing date; the response is due a
// fixed number of weeks later. For a review it is the review date itself.
type Subject struct {
	ID             string     `json:"id" bson:"_id"`
	DocumentID     string     `json:"documentId" bson:"documentId"`
	Title          string     `json:"title" bson:"title"`
	Kind           Kind       `json:"kind" bson:"kind"`
	Deadline       time.Time  `json:"deadline" bson:"deadline"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`
	AuthorIDs      []string   `json:"authorIds,omitempty" bson:"authorIds,omitempty"`
	EmailAddress   string     `json:"emailAddress,omitempty" bson:"emailAddress,omitempty"`
	CreatorID      string     `json:"creatorId,omitempty" bson:"creatorId,omitempty"`
	// ResponsePublished is set once a consultation's outcome is out; only
	// consultations still awaiting a response get reminders.
	ResponsePublished bool      `json:"responsePublished" bson:"responsePublished"`
	LockVersion       int64     `json:"lockVersion" bson:"lockVersion"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (s Subject) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DocumentID, validation.Required),
		validation.Field(&s.Kind, validation.Required, validation.In(KindReview, KindConsultation)),
		validation.Field(&s.Deadline, validation.Required),
		validation.Field(&s.EmailAddress,
			validation.When(s.Kind == KindReview, validation.Required),
			is.EmailFormat),
		validation.Field(&s.AuthorIDs, validation.When(s.Kind == KindConsultation, validation.Required)),
	)
}

// Reschedule moves the deadline. A changed date re-arms the reminder.
func (s *Subject) Reschedule(deadline time.Time) bool {
	deadline = deadline.UTC()
	if s.Deadline.Equal(deadline) {
		return false
	}
	s.Deadline = deadline
	s.ReminderSentAt = nil
	return true
}

func (s *Subject) Clone() *Subject {
	c := *s
	if s.ReminderSentAt != nil {
		t := *s.ReminderSentAt
		c.ReminderSentAt = &t
	}
	c.AuthorIDs = append([]string(nil), s.AuthorIDs...)
	return &c
}
