package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Empty(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunParallel(context.Background(), nil))
}

func TestRunParallel_AllSucceed(t *testing.T) {
	t.Parallel()
	var count atomic.Int32
	tasks := []Task{
		{Name: "table", Func: func(context.Context) error { count.Add(1); return nil }},
		{Name: "topic", Func: func(context.Context) error { count.Add(1); return nil }},
		{Name: "bucket", Func: func(context.Context) error { count.Add(1); return nil }},
	}

	require.NoError(t, RunParallel(context.Background(), tasks))
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_FailuresAreJoined(t *testing.T) {
	t.Parallel()
	errTopic := errors.New("topic quota")
	var finished atomic.Int32
	tasks := []Task{
		{Name: "table", Func: func(context.Context) error { finished.Add(1); return nil }},
		{Name: "topic", Func: func(context.Context) error { finished.Add(1); return errTopic }},
		{Name: "bucket", Func: func(context.Context) error { finished.Add(1); return errors.New("bucket taken") }},
	}

	err := RunParallel(context.Background(), tasks)

	require.Error(t, err)
	assert.ErrorIs(t, err, errTopic)
	assert.Contains(t, err.Error(), "topic: topic quota")
	assert.Contains(t, err.Error(), "bucket: bucket taken")
	assert.Equal(t, int32(3), finished.Load(), "all tasks must run to completion")

	var taskErr *TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "topic", taskErr.Name)
}
