package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/evbudget/internal/model"
)

// DueDateLayout is the layout of task due dates.
const DueDateLayout = "2006-01-02"

func validDueDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DueDateLayout, s)
	return err == nil
}

func hasTask(tasks []model.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// AddTask appends a pending task to the event.
func (s *Store) AddTask(eventID, description, dueDate string) (model.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return model.Task{}, ErrEmptyDescription
	}
	if !validDueDate(dueDate) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidDate, dueDate)
	}

	task := model.Task{Description: description, DueDate: dueDate}
	err := s.update(eventID, ChangeTaskAdded, func(ev *model.Event) error {
		task.ID = s.freshID(func(id string) bool { return hasTask(ev.Tasks, id) })
		ev.Tasks = append(ev.Tasks, task)
		return nil
	})
	return task, err
}

// UpdateTask replaces a task's description and due date.
func (s *Store) UpdateTask(eventID, taskID, description, dueDate string) (model.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return model.Task{}, ErrEmptyDescription
	}
	if !validDueDate(dueDate) {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidDate, dueDate)
	}

	var out model.Task
	err := s.update(eventID, ChangeTaskUpdated, func(ev *model.Event) error {
		for i, t := range ev.Tasks {
			if t.ID == taskID {
				ev.Tasks[i].Description = description
				ev.Tasks[i].DueDate = dueDate
				out = ev.Tasks[i]
				return nil
			}
		}
		return ErrTaskNotFound
	})
	return out, err
}

// ToggleTask flips a task's completion. Unknown tasks are ignored.
func (s *Store) ToggleTask(eventID, taskID string) error {
	return s.update(eventID, ChangeTaskUpdated, func(ev *model.Event) error {
		for i, t := range ev.Tasks {
			if t.ID == taskID {
				ev.Tasks[i].IsComplete = !t.IsComplete
			}
		}
		return nil
	})
}

// RemoveTask deletes a task. Unknown tasks are ignored.
func (s *Store) RemoveTask(eventID, taskID string) error {
	return s.update(eventID, ChangeTaskRemoved, func(ev *model.Event) error {
		out := make([]model.Task, 0, len(ev.Tasks))
		for _, t := range ev.Tasks {
			if t.ID != taskID {
				out = append(out, t)
			}
		}
		ev.Tasks = out
		return nil
	})
}
