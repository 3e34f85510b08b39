// Package calendar mirrors chores with due dates onto an external calendar.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choreify/internal/model"
	"github.com/dukerupert/choreify/internal/recurrence"
)

const (
	dateLayout    = "2006-01-02"
	summaryPrefix = "[Choreify] "
)

type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// Event is the provider-neutral shape of a chore's calendar entry. Start and
// End are dates; End is exclusive.
type Event struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	AllDay      bool       `json:"allDay"`
	ColorID     string     `json:"colorId"`
	Reminders   []Reminder `json:"reminders"`
	Recurrence  []string   `json:"recurrence,omitempty"`
}

func ColorIDForPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "4"
	case model.PriorityMedium:
		return "5"
	case model.PriorityLow:
		return "2"
	}
	return "1"
}

// ChoreURL links back to the chore on the dashboard.
func ChoreURL(baseURL, choreID string) string {
	return strings.TrimRight(baseURL, "/") + "/dashboard?chore=" + choreID
}

// FormatChore builds the all-day event for a chore due on day D, spanning
// [D, D+1) in UTC. The chore must have a due date.
func FormatChore(c model.Chore, baseURL string) Event {
	due := c.DueDate.UTC()
	day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)

	priority := string(c.Priority)
	if priority == "" {
		priority = "Normal"
	}

	var desc strings.Builder
	desc.WriteString(c.Description)
	desc.WriteString("\n\nPriority: " + priority + "\n")
	if c.AssignedTo != "" {
		desc.WriteString("Assigned to: " + c.AssignedTo)
	}
	fmt.Fprintf(&desc, "\n\nView in Choreify: %s", ChoreURL(baseURL, c.ID))

	ev := Event{
		Summary:     summaryPrefix + c.Title,
		Description: desc.String(),
		Start:       day.Format(dateLayout),
		End:         day.AddDate(0, 0, 1).Format(dateLayout),
		AllDay:      true,
		ColorID:     ColorIDForPriority(c.Priority),
		Reminders:   []Reminder{{Method: "popup", Minutes: 24 * 60}},
	}
	if rule, ok := recurrence.FromRecurring(c.Recurring); ok {
		ev.Recurrence = []string{"RRULE:" + rule.String()}
	}
	return ev
}

// dates parses the event's start and end dates.
func (e Event) dates() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, e.Start)
	if err != nil {
		return start, end, fmt.Errorf("parse start date: %w", err)
	}
	end, err = time.Parse(dateLayout, e.End)
	if err != nil {
		return start, end, fmt.Errorf("parse end date: %w", err)
	}
	return start, end, nil
}
