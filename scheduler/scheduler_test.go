package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"growledger-go/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeSweeper) SweepAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestRunOnceReportsSweeperResult(t *testing.T) {
	log := logging.NewWithOutput("error", "text", io.Discard)
	sw := &fakeSweeper{n: 3}
	s, err := New("@every 1h", sw, log)
	require.NoError(t, err)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	sw.err = errors.New("db locked")
	_, err = s.RunOnce(context.Background())
	assert.EqualError(t, err, "db locked")
	assert.EqualValues(t, 2, sw.calls.Load())
}

func TestScheduleFires(t *testing.T) {
	log := logging.NewWithOutput("error", "text", io.Discard)
	sw := &fakeSweeper{}
	s, err := New("@every 1s", sw, log)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestInvalidSchedule(t *testing.T) {
	_, err := New("every minute please", &fakeSweeper{}, nil)
	assert.Error(t, err)
}
