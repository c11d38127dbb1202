package screening

import (
	"errors"
	"fmt"
)

// ErrInvalidQuota is returned when a quota cannot back a usage bar.
var ErrInvalidQuota = errors.New("invalid quota")

// Quota is a read-only daily usage counter and its ceiling.
// used <= limit is not enforced here; the analysis service decides.
type Quota struct {
	used  int
	limit int
}

// NewQuota guards the divisor: limit must be positive and used non-negative.
func NewQuota(used, limit int) (Quota, error) {
	if limit <= 0 {
		return Quota{}, fmt.Errorf("limit %d: %w", limit, ErrInvalidQuota)
	}
	if used < 0 {
		return Quota{}, fmt.Errorf("used %d: %w", used, ErrInvalidQuota)
	}
	return Quota{used: used, limit: limit}, nil
}

func mustQuota(used, limit int) Quota {
	q, err := NewQuota(used, limit)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quota) Used() int  { return q.used }
func (q Quota) Limit() int { return q.limit }

// FractionUsed is used/limit. It can exceed 1 when the server allowed extra runs.
func (q Quota) FractionUsed() float64 {
	return float64(q.used) / float64(q.limit)
}

// AtLimit reports whether the daily allowance is spent. Informational only.
func (q Quota) AtLimit() bool {
	return q.used >= q.limit
}

func (q Quota) String() string {
	return fmt.Sprintf("%d/%d used today", q.used, q.limit)
}
