package airdrop

import (
	"fmt"
	"math/big"
)

// BpsDenominator is the basis-point scale used for the instant-release split.
const BpsDenominator = 10_000

// DefaultInstantBps releases 31% of the entitlement at vesting start; the
// remaining 69% vests linearly between start and end.
const DefaultInstantBps = 3_100

// Schedule fixes the vesting curve at deployment: an instant release at
// StartTime followed by linear vesting until EndTime.
type Schedule struct {
	StartTime  int64
	EndTime    int64
	InstantBps uint32
}

// Validate rejects schedules that violate deployment-time invariants. Claim
// processing never re-checks these.
func (s Schedule) Validate() error {
	if s.EndTime <= s.StartTime {
		return fmt.Errorf("airdrop: vesting end time %d must be after start time %d", s.EndTime, s.StartTime)
	}
	if s.InstantBps > BpsDenominator {
		return fmt.Errorf("airdrop: instant release bps out of range: %d", s.InstantBps)
	}
	return nil
}

// Duration returns the length of the linear vesting window in seconds.
func (s Schedule) Duration() int64 {
	return s.EndTime - s.StartTime
}

// UnlockedAtTime computes the cumulative entitlement unlocked by now. The
// function is pure and monotonically non-decreasing in now.
//
// All arithmetic is integer with truncating division so intermediate rounding
// can only undershoot, never over-allocate. The terminal now >= EndTime branch
// returns the exact total: the linear formula alone may fall short by a few
// units at the boundary due to truncation.
func UnlockedAtTime(now int64, total *big.Int, s Schedule) *big.Int {
	if total == nil || total.Sign() <= 0 {
		return big.NewInt(0)
	}
	if now < s.StartTime {
		return big.NewInt(0)
	}
	if now >= s.EndTime {
		return new(big.Int).Set(total)
	}
	instant := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(s.InstantBps)))
	instant.Div(instant, big.NewInt(BpsDenominator))
	// Derived by subtraction so instant + linearPool == total exactly.
	linearPool := new(big.Int).Sub(total, instant)

	elapsed := now - s.StartTime
	vested := new(big.Int).Mul(linearPool, big.NewInt(elapsed))
	vested.Div(vested, big.NewInt(s.Duration()))
	return instant.Add(instant, vested)
}
