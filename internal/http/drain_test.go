package http

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrain_BeginDone(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"})
	d := NewDrain(gauge, nil)

	first := d.Begin()
	second := d.Begin()
	assert.Equal(t, int64(2), d.Active())
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	first()
	first()
	assert.Equal(t, int64(1), d.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))

	second()
	assert.Equal(t, int64(0), d.Active())
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}

func TestDrain_WaitIdle(t *testing.T) {
	d := NewDrain(nil, nil)
	require.NoError(t, d.Wait(context.Background(), time.Hour))
}

func TestDrain_WaitUntilDone(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDrain(nil, clock)
	done := d.Begin()

	result := make(chan error, 1)
	go func() { result <- d.Wait(context.Background(), time.Second) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	done()
	clock.Advance(time.Second)

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the last request finished")
	}
}

func TestDrain_WaitCanceled(t *testing.T) {
	d := NewDrain(nil, clockwork.NewFakeClock())
	d.Begin()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Wait(ctx, time.Second), context.Canceled)
}
