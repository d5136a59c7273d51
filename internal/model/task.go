package model

import (
	"fmt"
	"strings"
	"time"
)

// Task is a personal to-do item.
//
// A Task without an ID has never been stored. The service layer assigns the
// ID on insert and never changes it afterwards.
type Task struct {
	// ID is the generated primary key, nil until the task is stored.
	ID *int64 `json:"idOption"`

	// Name identifies the task for the user. It cannot change after insert.
	Name string `json:"name"`

	Description string `json:"description"`

	// TargetEnd is the moment the task should be finished, if any.
	TargetEnd *time.Time `json:"targetEndOption"`

	// ExtraInformation is a free-text note. Blank notes are stored as absent.
	ExtraInformation *string `json:"extraInformationOption"`

	Closed bool `json:"closed"`
}

// NewTask returns an unsaved task. Blank notes are dropped and the target
// end is normalized to UTC.
func NewTask(
	name, description string,
	targetEnd *time.Time,
	extraInformation *string,
	closed bool,
) Task {
	return Task{
		Name:             name,
		Description:      description,
		TargetEnd:        UTCPtr(targetEnd),
		ExtraInformation: NonBlank(extraInformation),
		Closed:           closed,
	}
}

// HasID reports whether the task has been stored.
func (t Task) HasID() bool {
	return t.ID != nil
}

// WithID returns a copy of t carrying the given identity.
func (t Task) WithID(id int64) Task {
	t.ID = &id
	return t
}

// Validate checks the required fields of a task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("task name must not be empty: %w", ErrValidation)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task description must not be empty: %w", ErrValidation)
	}
	return nil
}

// Equal reports whether two tasks hold the same values.
func (t Task) Equal(o Task) bool {
	return equalInt64Ptr(t.ID, o.ID) &&
		t.Name == o.Name &&
		t.Description == o.Description &&
		equalTimePtr(t.TargetEnd, o.TargetEnd) &&
		equalStringPtr(t.ExtraInformation, o.ExtraInformation) &&
		t.Closed == o.Closed
}
