package hostvm

import "github.com/cockroachdb/errors"

// CostCall is charged for every search frame, the sBPF price of a call.
const CostCall = uint64(5)

var ErrComputeExceeded = errors.New("compute budget exceeded")

// ComputeMeter tracks compute unit consumption.
type ComputeMeter struct {
	remaining uint64
	limit     uint64
}

func NewComputeMeter(limit uint64) *ComputeMeter {
	return &ComputeMeter{
		remaining: limit,
		limit:     limit,
	}
}

// Consume takes cost units, or drains the meter and fails if fewer remain.
func (cm *ComputeMeter) Consume(cost uint64) error {
	if cm.remaining < cost {
		cm.remaining = 0
		return ErrComputeExceeded
	}
	cm.remaining -= cost
	return nil
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.remaining
}

// Used returns the units consumed since the last Reset.
func (cm *ComputeMeter) Used() uint64 {
	return cm.limit - cm.remaining
}

func (cm *ComputeMeter) Reset() {
	cm.remaining = cm.limit
}
