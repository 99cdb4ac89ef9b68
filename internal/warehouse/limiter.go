package warehouse

import "context"

// PermitPool bounds the aggregate number of in-flight requests against
// one tenant. Every subsystem that talks to the warehouse (backfill
// workers, the schedule executor, ad-hoc dispatch) draws from the same
// pool so the external concurrency ceiling holds regardless of which
// path issued the request.
type PermitPool struct {
	permits chan struct{}
}

func NewPermitPool(size int) *PermitPool {
	if size < 1 {
		size = 1
	}
	return &PermitPool{permits: make(chan struct{}, size)}
}

// Acquire blocks until a permit is available or ctx is done.
func (p *PermitPool) Acquire(ctx context.Context) error {
	select {
	case p.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a permit without blocking.
func (p *PermitPool) TryAcquire() bool {
	select {
	case p.permits <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *PermitPool) Release() {
	select {
	case <-p.permits:
	default:
		// Release without Acquire is a programming error; do not block.
	}
}

// InFlight reports the number of permits currently held.
func (p *PermitPool) InFlight() int {
	return len(p.permits)
}

// Capacity reports the pool size.
func (p *PermitPool) Capacity() int {
	return cap(p.permits)
}
