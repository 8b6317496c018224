// Package hostvm stands in for the sandboxed host that calls the entry
// function. The search itself never bounds its own recursion; a Machine does,
// by refusing frames past MaxCallDepth or once the compute budget is spent.
package hostvm

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mhr3/rangesearch/internal/config"
	"github.com/mhr3/rangesearch/internal/logger"
	"github.com/mhr3/rangesearch/internal/metrics"
	"github.com/mhr3/rangesearch/rangesearch"
)

var (
	ErrCallDepthExceeded = errors.New("call depth exceeded")
	ErrEmptyInput        = errors.New("entry input must hold at least one byte")
)

type Status string

const (
	StatusFound           Status = "found"
	StatusAbsent          Status = "absent"
	StatusDepthExceeded   Status = "depth_exceeded"
	StatusComputeExceeded Status = "compute_exceeded"
)

// Result is what the host observed for one entry invocation.
type Result struct {
	Input    byte   `json:"input"`
	Code     uint64 `json:"code"`
	Status   Status `json:"status"`
	Depth    int    `json:"depth"`
	MaxDepth int    `json:"max_depth"`
	Units    uint64 `json:"compute_units"`
}

// Terminated reports whether the entry function returned on its own.
func (r Result) Terminated() bool {
	return r.Status == StatusFound || r.Status == StatusAbsent
}

type Limits struct {
	MaxCallDepth  int
	ComputeBudget uint64
}

func LimitsFromConfig(cfg *config.Configuration) Limits {
	return Limits{
		MaxCallDepth:  cfg.Host.MaxCallDepth,
		ComputeBudget: cfg.Host.ComputeBudget,
	}
}

// Machine runs the entry function one invocation at a time. It implements
// rangesearch.CallStack and is not safe for concurrent use.
type Machine struct {
	variant rangesearch.Variant
	limits  Limits
	meter   *ComputeMeter

	depth int
	peak  int
}

var _ rangesearch.CallStack = (*Machine)(nil)

func NewMachine(v rangesearch.Variant, limits Limits) (*Machine, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if limits.MaxCallDepth <= 0 {
		return nil, errors.Wrapf(config.ErrInvalidConfig, "max call depth %d", limits.MaxCallDepth)
	}
	if limits.ComputeBudget == 0 {
		return nil, errors.Wrap(config.ErrInvalidConfig, "compute budget is zero")
	}
	return &Machine{
		variant: v,
		limits:  limits,
		meter:   NewComputeMeter(limits.ComputeBudget),
	}, nil
}

func (m *Machine) Variant() rangesearch.Variant { return m.variant }

func (m *Machine) Push(f rangesearch.Frame) error {
	if m.depth >= m.limits.MaxCallDepth {
		return errors.Wrapf(ErrCallDepthExceeded, "depth %d, frame [%d,%d)", m.depth, f.Lo, f.Hi)
	}
	if err := m.meter.Consume(CostCall); err != nil {
		return errors.Wrapf(err, "depth %d, frame [%d,%d)", m.depth, f.Lo, f.Hi)
	}
	m.depth++
	if m.depth > m.peak {
		m.peak = m.depth
	}
	return nil
}

func (m *Machine) Pop() {
	m.depth--
}

// Invoke calls the entry function on input. Hitting a host limit is an
// outcome recorded in Result.Status, not an error; errors are reserved for
// invocations that could not be made.
func (m *Machine) Invoke(ctx context.Context, input []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(input) == 0 {
		return Result{}, ErrEmptyInput
	}

	m.depth, m.peak = 0, 0
	m.meter.Reset()

	code, err := rangesearch.RunFrames(m.variant, m, input)
	res := Result{
		Input:    input[0],
		Code:     code,
		Depth:    m.peak,
		MaxDepth: m.limits.MaxCallDepth,
		Units:    m.meter.Used(),
	}

	log := logger.Ctx(ctx).With(
		zap.String("variant", m.variant.String()),
		zap.Uint8("input", input[0]),
		zap.Int("depth", m.peak),
	)
	switch {
	case err == nil && code == rangesearch.Sentinel:
		res.Status = StatusAbsent
	case err == nil:
		res.Status = StatusFound
	case errors.Is(err, ErrCallDepthExceeded):
		res.Status = StatusDepthExceeded
		log.Warn("entry stopped by call depth limit", zap.Int("maxDepth", m.limits.MaxCallDepth), zap.Error(err))
	case errors.Is(err, ErrComputeExceeded):
		res.Status = StatusComputeExceeded
		log.Warn("entry stopped by compute budget", zap.Uint64("budget", m.limits.ComputeBudget), zap.Error(err))
	default:
		return Result{}, err
	}

	log.Debug("entry invoked", zap.Uint64("code", code), zap.String("status", string(res.Status)))
	metrics.EntryCalls.WithLabelValues(m.variant.String(), string(res.Status)).Inc()
	metrics.CallDepth.WithLabelValues(m.variant.String()).Observe(float64(res.Depth))
	metrics.ComputeUnits.WithLabelValues(m.variant.String()).Observe(float64(res.Units))
	return res, nil
}
