package web

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nhle/todo/internal/model"
)

// TargetEndLayout is the layout of the datetime-local input that carries a
// task's target end. Browsers omit the seconds when they are zero, so
// targetEndShortLayout is accepted too.
const (
	TargetEndLayout      = "2006-01-02T15:04:05"
	targetEndShortLayout = "2006-01-02T15:04"
)

// TaskFormData is the shape of the task form. Every field is optional so
// that a half-filled form can be rendered again.
type TaskFormData struct {
	ID               *int64
	Name             string
	Description      string
	TargetEnd        string
	ExtraInformation string
	Closed           bool
}

// TaskFormDataFromModel fills a form from a stored task. The target end is
// shown in UTC without sub-second precision.
func TaskFormDataFromModel(t model.Task) TaskFormData {
	f := TaskFormData{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Closed:      t.Closed,
	}
	if t.TargetEnd != nil {
		f.TargetEnd = model.TruncateToSecond(t.TargetEnd.UTC()).Format(TargetEndLayout)
	}
	if t.ExtraInformation != nil {
		f.ExtraInformation = *t.ExtraInformation
	}
	return f
}

// ToModel converts the form into a task. Name and description are
// required; a blank target end or note becomes absent.
func (f TaskFormData) ToModel() (model.Task, error) {
	if strings.TrimSpace(f.Name) == "" {
		return model.Task{}, fmt.Errorf("name is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(f.Description) == "" {
		return model.Task{}, fmt.Errorf("description is required: %w", model.ErrValidation)
	}

	targetEnd, err := parseTargetEnd(f.TargetEnd)
	if err != nil {
		return model.Task{}, err
	}

	t := model.NewTask(f.Name, f.Description, targetEnd, model.Ptr(f.ExtraInformation), f.Closed)
	t.ID = f.ID
	return t, nil
}

func parseTargetEnd(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{TargetEndLayout, targetEndShortLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return model.Ptr(model.TruncateToSecond(t)), nil
		}
	}
	return nil, fmt.Errorf("target end %q is not a date and time: %w", s, model.ErrValidation)
}

// bindTaskForm reads the posted task form. A malformed id is a validation
// error; an unchecked closed box is false.
func bindTaskForm(c echo.Context) (TaskFormData, error) {
	f := TaskFormData{
		Name:             c.FormValue("name"),
		Description:      c.FormValue("description"),
		TargetEnd:        c.FormValue("targetEnd"),
		ExtraInformation: c.FormValue("extraInformation"),
	}

	switch v := strings.TrimSpace(c.FormValue("closed")); v {
	case "", "false", "off":
	case "on", "true":
		f.Closed = true
	default:
		return f, fmt.Errorf("closed %q is not a boolean: %w", v, model.ErrValidation)
	}

	if v := strings.TrimSpace(c.FormValue("id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("id %q is not a number: %w", v, model.ErrValidation)
		}
		f.ID = &id
	}
	return f, nil
}
