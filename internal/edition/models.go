package edition

import "time"

// State is the workflow state of a single edition.
type State string

const (
	StateDraft      State = "draft"
	StateSubmitted  State = "submitted"
	StateRejected   State = "rejected"
	StateScheduled  State = "scheduled"
	StatePublished  State = "published"
	StateSuperseded State = "superseded"
	StateWithdrawn  State = "withdrawn"
	StateDeleted    State = "deleted"
)

// Valid reports whether s is one of the known workflow states.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateSubmitted, StateRejected, StateScheduled,
		StatePublished, StateSuperseded, StateWithdrawn, StateDeleted:
		return true
	}
	return false
}

// PrePublication is true for states an editor can still work on.
func (s State) PrePublication() bool {
	return s == StateDraft || s == StateSubmitted || s == StateRejected || s == StateScheduled
}

// Document is the stable identity shared by every edition of a content item.
type Document struct {
	ID              string    `json:"id" bson:"_id"`
	ContentType     string    `json:"contentType" bson:"contentType"`
	Slug            string    `json:"slug" bson:"slug"`
	LatestEditionID string    `json:"latestEditionId,omitempty" bson:"latestEditionId,omitempty"`
	LiveEditionID   string    `json:"liveEditionId,omitempty" bson:"liveEditionId,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UnpublishingReason says why a published edition was taken down.
type UnpublishingReason string

const (
	ReasonPublishedInError UnpublishingReason = "published_in_error"
	ReasonConsolidated     UnpublishingReason = "consolidated"
	ReasonWithdrawn        UnpublishingReason = "withdrawn"
)

func (r UnpublishingReason) Valid() bool {
	return r == ReasonPublishedInError || r == ReasonConsolidated || r == ReasonWithdrawn
}

// TargetState is where the edition ends up after being unpublished for r.
// Withdrawn content stays visible with a notice; everything else goes back
// to draft so it can be corrected and republished.
func (r UnpublishingReason) TargetState() State {
	if r == ReasonWithdrawn {
		return StateWithdrawn
	}
	return StateDraft
}

// Unpublishing is a retraction request attached to an edition.
type Unpublishing struct {
	Reason         UnpublishingReason `json:"reason" bson:"reason"`
	Explanation    string             `json:"explanation,omitempty" bson:"explanation,omitempty"`
	AlternativeURL string             `json:"alternativeUrl,omitempty" bson:"alternativeUrl,omitempty"`
	UnpublishedAt  time.Time          `json:"unpublishedAt" bson:"unpublishedAt"`
	ActorID        string             `json:"actorId,omitempty" bson:"actorId,omitempty"`
}

// Deletion is the snapshot taken when an edition is soft-deleted. It holds
// everything Restore needs to put the edition back.
type Deletion struct {
	PriorState                State      `json:"priorState" bson:"priorState"`
	PriorScheduledPublication *time.Time `json:"priorScheduledPublication,omitempty" bson:"priorScheduledPublication,omitempty"`
	WasLive                   bool       `json:"wasLive" bson:"wasLive"`
	DeletedAt                 time.Time  `json:"deletedAt" bson:"deletedAt"`
	ActorID                   string     `json:"actorId,omitempty" bson:"actorId,omitempty"`
}

// Edition is one version of a document's content.
type Edition struct {
	ID         string `json:"id" bson:"_id"`
	DocumentID string `json:"documentId" bson:"documentId"`
	State      State  `json:"state" bson:"state"`
	Version    int    `json:"version" bson:"version"`

	Title       string `json:"title" bson:"title"`
	Summary     string `json:"summary,omitempty" bson:"summary,omitempty"`
	Body        string `json:"body,omitempty" bson:"body,omitempty"`
	ChangeNote  string `json:"changeNote,omitempty" bson:"changeNote,omitempty"`
	MinorChange bool   `json:"minorChange" bson:"minorChange"`

	// StatisticsAnnouncementID links a publication to the announcement
	// that preceded it; the announcement leaves search once it publishes.
	StatisticsAnnouncementID string `json:"statisticsAnnouncementId,omitempty" bson:"statisticsAnnouncementId,omitempty"`

	ScheduledPublication   *time.Time `json:"scheduledPublication,omitempty" bson:"scheduledPublication,omitempty"`
	FirstPublishedAt       *time.Time `json:"firstPublishedAt,omitempty" bson:"firstPublishedAt,omitempty"`
	MajorChangePublishedAt *time.Time `json:"majorChangePublishedAt,omitempty" bson:"majorChangePublishedAt,omitempty"`
	PublishedAt            *time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`

	CreatorID     string `json:"creatorId,omitempty" bson:"creatorId,omitempty"`
	SubmitterID   string `json:"submitterId,omitempty" bson:"submitterId,omitempty"`
	RejectionNote string `json:"rejectionNote,omitempty" bson:"rejectionNote,omitempty"`

	Unpublishing *Unpublishing `json:"unpublishing,omitempty" bson:"unpublishing,omitempty"`
	Deletion     *Deletion     `json:"deletion,omitempty" bson:"deletion,omitempty"`

	// LockVersion is bumped on every write; repositories only apply a write
	// when the stored value still matches the one that was read.
	LockVersion int64     `json:"lockVersion" bson:"lockVersion"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy so callers can stage changes without touching
// the stored value.
func (e *Edition) Clone() *Edition {
	if e == nil {
		return nil
	}
	c := *e
	c.ScheduledPublication = cloneTime(e.ScheduledPublication)
	c.FirstPublishedAt = cloneTime(e.FirstPublishedAt)
	c.MajorChangePublishedAt = cloneTime(e.MajorChangePublishedAt)
	c.PublishedAt = cloneTime(e.PublishedAt)
	if e.Unpublishing != nil {
		u := *e.Unpublishing
		c.Unpublishing = &u
	}
	if e.Deletion != nil {
		d := *e.Deletion
		d.PriorScheduledPublication = cloneTime(e.Deletion.PriorScheduledPublication)
		c.Deletion = &d
	}
	return &c
}

// IsFirstVersion is true until some edition of the document has been published.
func (e *Edition) IsFirstVersion() bool {
	return e.FirstPublishedAt == nil
}

// NewDraft builds the next draft from e, carrying content and first
// publication date forward. The caller assigns the ID.
func (e *Edition) NewDraft(creatorID string, now time.Time) *Edition {
	return &Edition{
		DocumentID:               e.DocumentID,
		State:                    StateDraft,
		Version:                  e.Version + 1,
		Title:                    e.Title,
		Summary:                  e.Summary,
		Body:                     e.Body,
		StatisticsAnnouncementID: e.StatisticsAnnouncementID,
		FirstPublishedAt:         cloneTime(e.FirstPublishedAt),
		CreatorID:                creatorID,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr is a small helper for optional timestamps.
func TimePtr(t time.Time) *time.Time { return &t }
