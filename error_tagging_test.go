package executor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTaskTaggedError_NilPassthrough(t *testing.T) {
	require.Nil(t, newTaskTaggedError(nil, uuid.New(), 1))
}

func TestTaskTaggedError_UnwrapAndExtract(t *testing.T) {
	base := errors.New("boom")
	id := uuid.New()
	err := newTaskTaggedError(base, id, 5)

	require.ErrorIs(t, err, base)
	require.Equal(t, "boom", err.Error())

	gotID, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, id, gotID)

	idx, ok := ExtractTaskIndex(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	require.Equal(t, 5, idx)
}

func TestTaskTaggedError_NilIDNotReported(t *testing.T) {
	err := newTaskTaggedError(errors.New("x"), uuid.Nil, 4)
	_, ok := ExtractTaskID(err)
	require.False(t, ok)

	meta, ok := ExtractTaskMeta(err)
	require.True(t, ok)
	require.Equal(t, TaskMeta{ID: uuid.Nil, Index: 4}, meta)
}

func TestExtract_UntaggedError(t *testing.T) {
	_, ok := ExtractTaskID(errors.New("plain"))
	require.False(t, ok)
	_, ok = ExtractTaskIndex(errors.New("plain"))
	require.False(t, ok)
	_, ok = ExtractTaskMeta(nil)
	require.False(t, ok)
}

func TestTaskTaggedError_Format(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	err := newTaskTaggedError(errors.New("boom"), id, 2)

	require.Equal(t, "boom", fmt.Sprintf("%v", err))
	require.Equal(t, "boom", fmt.Sprintf("%s", err))
	require.Equal(t, `"boom"`, fmt.Sprintf("%q", err))
	require.Equal(t, "task #2 (00000000-0000-0000-0000-000000000001): boom", fmt.Sprintf("%+v", err))
}
