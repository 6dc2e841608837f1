package types

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/workflow"
)

// StatusEvent records that an application reached a status at a point in time.
type StatusEvent struct {
	ID       uuid.UUID       `json:"id"`
	Occurred time.Time       `json:"occurred"`
	Status   workflow.Status `json:"status"`
}

// Event is a free-text note attached to an application (a call, a follow-up).
type Event struct {
	ID          uuid.UUID `json:"id"`
	Occurred    time.Time `json:"occurred"`
	Description string    `json:"description"`
}

// Application is a single job application with its status history and event log.
// StatusHistory is not kept sorted; use SortedHistory when order matters.
type Application struct {
	ID       uuid.UUID `json:"id"`
	Company  string    `json:"company"`
	Position string    `json:"position"`
	Location string    `json:"location,omitempty"`
	URL      string    `json:"url,omitempty"`
	Notes    string    `json:"notes,omitempty"`

	StatusHistory []StatusEvent `json:"status_history"`
	Events        []Event       `json:"events"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Statuses returns every status recorded for the application, in storage order.
func (a *Application) Statuses() []workflow.Status {
	statuses := make([]workflow.Status, 0, len(a.StatusHistory))
	for _, e := range a.StatusHistory {
		statuses = append(statuses, e.Status)
	}
	return statuses
}

// SortedHistory returns a copy of the status history ordered by Occurred.
// Events with the same timestamp keep their storage order.
func (a *Application) SortedHistory() []StatusEvent {
	history := make([]StatusEvent, len(a.StatusHistory))
	copy(history, a.StatusHistory)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Occurred.Before(history[j].Occurred)
	})
	return history
}

// CurrentStatus returns the most recently recorded status.
func (a *Application) CurrentStatus() (workflow.Status, bool) {
	history := a.SortedHistory()
	if len(history) == 0 {
		return "", false
	}
	return history[len(history)-1].Status, true
}

// AvailableTransitions returns the statuses that may be added next.
func (a *Application) AvailableTransitions() []workflow.Status {
	return workflow.AvailableTransitions(a.Statuses())
}

// Closed reports whether a terminal status has been recorded.
func (a *Application) Closed() bool {
	for _, e := range a.StatusHistory {
		if workflow.IsTerminal(e.Status) {
			return true
		}
	}
	return false
}

// ApplicationSummary is the list view of an application.
type ApplicationSummary struct {
	ID            uuid.UUID       `json:"id"`
	Company       string          `json:"company"`
	Position      string          `json:"position"`
	CurrentStatus workflow.Status `json:"current_status,omitempty"`
	Closed        bool            `json:"closed"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Summary builds the list view of the application.
func (a *Application) Summary() ApplicationSummary {
	current, _ := a.CurrentStatus()
	return ApplicationSummary{
		ID:            a.ID,
		Company:       a.Company,
		Position:      a.Position,
		CurrentStatus: current,
		Closed:        a.Closed(),
		UpdatedAt:     a.UpdatedAt,
	}
}
