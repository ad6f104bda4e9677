// Package progress publishes the running job's progress to pollers without
// locking.
package progress

import (
	"math"
	"sync/atomic"
)

// Progress is an immutable progress record.
type Progress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// New computes the percentage, rounded to two decimals and clamped to
// [0, 100]. A zero total reports 0%.
func New(current, total int) Progress {
	p := Progress{Current: current, Total: total}
	if total <= 0 {
		return p
	}
	pct := float64(current) / float64(total) * 100
	pct = math.Round(pct*100) / 100
	p.Percentage = math.Max(0, math.Min(100, pct))
	return p
}

// Publisher holds the latest snapshot. Readers never block the writer.
type Publisher struct {
	current atomic.Pointer[Progress]
}

func NewPublisher() *Publisher {
	p := &Publisher{}
	p.Reset()
	return p
}

func (p *Publisher) Publish(current, total int) {
	snap := New(current, total)
	p.current.Store(&snap)
}

func (p *Publisher) Snapshot() Progress {
	if s := p.current.Load(); s != nil {
		return *s
	}
	return Progress{}
}

func (p *Publisher) Reset() {
	p.current.Store(&Progress{})
}
