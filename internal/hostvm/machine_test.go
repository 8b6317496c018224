package hostvm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhr3/rangesearch/internal/config"
	"github.com/mhr3/rangesearch/internal/metrics"
	"github.com/mhr3/rangesearch/rangesearch"
)

var defaultLimits = Limits{MaxCallDepth: 64, ComputeBudget: config.DefaultComputeBudget}

func newMachine(t *testing.T, v rangesearch.Variant, limits Limits) *Machine {
	t.Helper()
	m, err := NewMachine(v, limits)
	require.NoError(t, err)
	return m
}

func TestNewMachine_Rejects(t *testing.T) {
	_, err := NewMachine(0, defaultLimits)
	assert.ErrorIs(t, err, rangesearch.ErrNoVariant)

	_, err = NewMachine(rangesearch.LegacyMidpoint, Limits{MaxCallDepth: 0, ComputeBudget: 10})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = NewMachine(rangesearch.LegacyMidpoint, Limits{MaxCallDepth: 4})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestInvoke_LegacyTop(t *testing.T) {
	m := newMachine(t, rangesearch.LegacyMidpoint, defaultLimits)
	res, err := m.Invoke(context.Background(), []byte{240})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, uint64(240), res.Code)
	assert.Equal(t, 1, res.Depth)
	assert.Equal(t, CostCall, res.Units)
	assert.True(t, res.Terminated())
}

func TestInvoke_LegacyAboveTop(t *testing.T) {
	m := newMachine(t, rangesearch.LegacyMidpoint, defaultLimits)
	for v := 241; v < 256; v++ {
		res, err := m.Invoke(context.Background(), []byte{byte(v)})
		require.NoError(t, err)
		assert.Equal(t, StatusAbsent, res.Status, "input=%d", v)
		assert.Equal(t, rangesearch.Sentinel, res.Code)
		assert.Equal(t, 2, res.Depth)
	}
}

func TestInvoke_LegacyDegenerateRecursionIsBoundedByHost(t *testing.T) {
	for _, limit := range []int{1, 8, 64, 4096} {
		m := newMachine(t, rangesearch.LegacyMidpoint, Limits{MaxCallDepth: limit, ComputeBudget: 1 << 40})
		for v := 0; v < 240; v++ {
			res, err := m.Invoke(context.Background(), []byte{byte(v)})
			require.NoError(t, err)
			assert.Equal(t, StatusDepthExceeded, res.Status, "input=%d limit=%d", v, limit)
			assert.Equal(t, limit, res.Depth, "input=%d limit=%d", v, limit)
			assert.Equal(t, rangesearch.Sentinel, res.Code)
			assert.False(t, res.Terminated())
		}
	}
}

func TestInvoke_ComputeBudget(t *testing.T) {
	m := newMachine(t, rangesearch.LegacyMidpoint, Limits{MaxCallDepth: 1 << 20, ComputeBudget: 10 * CostCall})
	res, err := m.Invoke(context.Background(), []byte{3})
	require.NoError(t, err)
	assert.Equal(t, StatusComputeExceeded, res.Status)
	assert.Equal(t, 10, res.Depth)
	assert.Equal(t, 10*CostCall, res.Units)
}

func TestInvoke_CorrectVariant(t *testing.T) {
	m := newMachine(t, rangesearch.CorrectMidpoint, defaultLimits)
	for v := 0; v < 256; v++ {
		res, err := m.Invoke(context.Background(), []byte{byte(v)})
		require.NoError(t, err)
		if rangesearch.Contains(byte(v)) {
			assert.Equal(t, StatusFound, res.Status, "input=%d", v)
			assert.Equal(t, uint64(v), res.Code)
		} else {
			assert.Equal(t, StatusAbsent, res.Status, "input=%d", v)
			assert.Equal(t, rangesearch.Sentinel, res.Code)
		}
		assert.LessOrEqual(t, res.Depth, 6)
	}
}

func TestInvoke_Errors(t *testing.T) {
	m := newMachine(t, rangesearch.CorrectMidpoint, defaultLimits)

	_, err := m.Invoke(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Invoke(ctx, []byte{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvoke_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	counter := metrics.EntryCalls.WithLabelValues(rangesearch.LegacyMidpoint.String(), string(StatusDepthExceeded))
	before := testutil.ToFloat64(counter)

	m := newMachine(t, rangesearch.LegacyMidpoint, Limits{MaxCallDepth: 4, ComputeBudget: 100})
	_, err := m.Invoke(context.Background(), []byte{0})
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMachine_RestoresDepthBetweenInvocations(t *testing.T) {
	m := newMachine(t, rangesearch.LegacyMidpoint, Limits{MaxCallDepth: 4, ComputeBudget: 100})
	_, err := m.Invoke(context.Background(), []byte{0})
	require.NoError(t, err)
	assert.Zero(t, m.depth)

	res, err := m.Invoke(context.Background(), []byte{240})
	require.NoError(t, err)
	assert.Equal(t, StatusFound, res.Status)
	assert.Equal(t, 1, res.Depth)
}
