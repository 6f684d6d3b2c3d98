package reminder

import (
	"sort"
	"time"
)

// Template names the message a reminder is rendered with.
type Template string

const (
	TemplateConsultationUpcoming Template = "consultation_deadline_upcoming"
	TemplateConsultationPassed   Template = "consultation_deadline_passed"
	TemplateReview               Template = "review_reminder"
)

const week = 7 * 24 * time.Hour

// Due is a subject the scheduler has to send a reminder for.
type Due struct {
	Subject   *Subject
	Template  Template
	WeeksLeft int
	// Deadline is the date the recipient is reminded of.
	Deadline time.Time
}

// ConsultationPolicy is stateless: a consultation matches an offset for one
// Window after the moment deadline minus offset is reached, so a task that
// runs once per window reminds exactly once per offset.
type ConsultationPolicy struct {
	ResponseWeeks int
	OffsetWeeks   []int
	Window        time.Duration
}

func DefaultConsultationPolicy() ConsultationPolicy {
	return ConsultationPolicy{ResponseWeeks: 12, OffsetWeeks: []int{4, 1}, Window: 24 * time.Hour}
}

// ResponseDeadline is when a response to a consultation closing at closing
// is due.
func (p ConsultationPolicy) ResponseDeadline(closing time.Time) time.Time {
	return closing.Add(time.Duration(p.ResponseWeeks) * week)
}

// offsets returns the configured offsets largest first, followed by zero for
// the deadline-passed notice.
func (p ConsultationPolicy) offsets() []int {
	out := make([]int, 0, len(p.OffsetWeeks)+1)
	for _, w := range p.OffsetWeeks {
		if w > 0 {
			out = append(out, w)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return append(out, 0)
}

// ClosingRange bounds the closing dates that can match any offset at now,
// as a half-open interval (from, to].
func (p ConsultationPolicy) ClosingRange(now time.Time) (from, to time.Time) {
	offs := p.offsets()
	maxOffset := time.Duration(offs[0]) * week
	response := time.Duration(p.ResponseWeeks) * week
	return now.Add(-p.Window - response), now.Add(maxOffset - response)
}

func (p ConsultationPolicy) Match(s *Subject, now time.Time) (Due, bool) {
	if s.Kind != KindConsultation || s.ResponsePublished {
		return Due{}, false
	}
	deadline := p.ResponseDeadline(s.Deadline)
	for _, w := range p.offsets() {
		at := deadline.Add(-time.Duration(w) * week)
		if at.After(now.Add(-p.Window)) && !at.After(now) {
			if w == 0 {
				return Due{Subject: s, Template: TemplateConsultationPassed, Deadline: deadline}, true
			}
			return Due{Subject: s, Template: TemplateConsultationUpcoming, WeeksLeft: w, Deadline: deadline}, true
		}
	}
	return Due{}, false
}

// ReviewPolicy fires once per deadline: the sent mark is only cleared by
// rescheduling.
type ReviewPolicy struct{}

func (ReviewPolicy) Match(s *Subject, now time.Time) (Due, bool) {
	if s.Kind != KindReview || s.ReminderSentAt != nil || s.Deadline.After(now) {
		return Due{}, false
	}
	return Due{Subject: s, Template: TemplateReview, Deadline: s.Deadline}, true
}
