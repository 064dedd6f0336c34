package models

import (
	"bytes"
	"fmt"
	"time"
)

// ProjectData is the TickTick open API response for a project's task list.
type ProjectData struct {
	Project Project `json:"project"`
	Tasks   []Task  `json:"tasks"`
}

// Project identifies the TickTick project the tasks belong to.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task priorities as defined by the TickTick API.
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 3
	PriorityHigh   = 5
)

// Task is one to-do entry. Only fields the screen displays are decoded.
type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Priority  int      `json:"priority"`
	StartDate TaskTime `json:"startDate"`
	DueDate   TaskTime `json:"dueDate"`
}

// TaskTime decodes the TickTick timestamp format, a signed numeric UTC offset
// without a colon ("2019-11-13T03:00:00.000+0000"). Absent or null fields
// leave the zero value.
type TaskTime struct {
	time.Time
}

var taskTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

func (t *TaskTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	for _, layout := range taskTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("models: invalid task timestamp %q", s)
}
