package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronRunsJobs(t *testing.T) {
	c := NewCron(context.Background(), time.Second, nil)
	var runs atomic.Int32
	require.NoError(t, c.Every("@every 1s", "tick", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	c.Start()
	defer c.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestCronRejectsBadSpec(t *testing.T) {
	c := NewCron(context.Background(), 0, nil)
	assert.Error(t, c.Every("every five", "bad", func(context.Context) error { return nil }))
}

func TestRunSurvivesJobError(t *testing.T) {
	c := NewCron(context.Background(), 0, nil)
	assert.NotPanics(t, func() {
		c.run("failing", func(context.Context) error { return errors.New("boom") })
	})
}
