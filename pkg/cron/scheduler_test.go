package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int
	limit int
	err   error
}

func (f *fakeSweeper) Sweep(_ context.Context, limit int) error {
	f.calls++
	f.limit = limit
	return f.err
}

func TestScheduler_RunNow(t *testing.T) {
	sw := &fakeSweeper{}
	s := NewScheduler(sw, "0 3 * * *", 250, nil)
	s.RunNow()
	assert.Equal(t, 1, sw.calls)
	assert.Equal(t, 250, sw.limit)

	sw.err = errors.New("db down")
	s.RunNow()
	assert.Equal(t, 2, sw.calls)
}

func TestScheduler_Start(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, "0 3 * * *", 10, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	<-s.Stop().Done()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, "every day", 10, nil)
	assert.Error(t, s.Start())
}
