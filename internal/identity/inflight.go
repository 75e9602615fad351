package identity

import (
	"golang.org/x/sync/semaphore"
)

// inflight allows one pending call per operation
type inflight struct {
	sems map[Op]*semaphore.Weighted
}

func newInflight() *inflight {
	f := &inflight{sems: make(map[Op]*semaphore.Weighted)}
	for _, op := range []Op{OpRegister, OpLogin, OpLookup, OpUpdate} {
		f.sems[op] = semaphore.NewWeighted(1)
	}
	return f
}

// acquire claims op without waiting. A nil inflight never refuses.
func (f *inflight) acquire(op Op) (release func(), ok bool) {
	if f == nil {
		return func() {}, true
	}
	sem := f.sems[op]
	if !sem.TryAcquire(1) {
		return nil, false
	}
	return func() { sem.Release(1) }, true
}
