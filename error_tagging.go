package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TaskMeta identifies an accepted task: a random ID and the admission index.
type TaskMeta struct {
	ID    uuid.UUID
	Index int
}

// TaskMetaError is implemented by errors tagged with the metadata of the failed task.
// Tagging is enabled with WithErrorTagging.
type TaskMetaError interface {
	error
	Unwrap() error
	TaskMeta() TaskMeta
}

type taggedError struct {
	err  error
	meta TaskMeta
}

func newTaskTaggedError(err error, id uuid.UUID, index int) error {
	if err == nil {
		return nil
	}
	return &taggedError{err: err, meta: TaskMeta{ID: id, Index: index}}
}

func (e *taggedError) Error() string      { return e.err.Error() }
func (e *taggedError) Unwrap() error      { return e.err }
func (e *taggedError) TaskMeta() TaskMeta { return e.meta }

// Format prints the task metadata in front of the error for %+v.
func (e *taggedError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = fmt.Fprintf(s, "task #%d (%s): %+v", e.meta.Index, e.meta.ID, e.err)
	case verb == 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprint(s, e.Error())
	}
}

// ExtractTaskMeta returns the metadata of the failed task if err carries it.
func ExtractTaskMeta(err error) (TaskMeta, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskMeta(), true
	}
	return TaskMeta{}, false
}

// ExtractTaskID returns the ID of the failed task if err carries one.
func ExtractTaskID(err error) (uuid.UUID, bool) {
	m, ok := ExtractTaskMeta(err)
	if !ok || m.ID == uuid.Nil {
		return uuid.Nil, false
	}
	return m.ID, true
}

// ExtractTaskIndex returns the admission index of the failed task if err carries one.
func ExtractTaskIndex(err error) (int, bool) {
	m, ok := ExtractTaskMeta(err)
	return m.Index, ok
}
