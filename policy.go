// Buffer growth strategies.
//
// When a single record does not fit in the Reader's buffer, the Reader asks
// its BufferPolicy for a larger capacity. The policy either names a strictly
// larger size or refuses, in which case the current parse fails with
// ErrBufferLimit. Policies only see capacities, never data, so the same
// policy value may be shared by many Readers as long as it keeps no state.
package fasta

// Growth constants for StandardPolicy.
const (
	DefaultCapacity = 64 * 1024 // initial buffer size
	MinCapacity     = 3         // smallest buffer that can hold "\r\n" plus one byte
	growthStep      = 1 << 23   // 8 MiB: doubling stops, linear growth begins
)

// BufferPolicy decides how far the read buffer may grow. GrowTo returns the
// next capacity, which must be larger than current, or ok=false to refuse.
type BufferPolicy interface {
	GrowTo(current int) (next int, ok bool)
}

// PolicyFunc adapts a plain function to BufferPolicy.
type PolicyFunc func(current int) (int, bool)

func (f PolicyFunc) GrowTo(current int) (int, bool) {
	return f(current)
}

// StandardPolicy doubles the capacity up to 8 MiB and then grows in 8 MiB
// steps. It never refuses.
type StandardPolicy struct{}

func (StandardPolicy) GrowTo(current int) (int, bool) {
	if current < growthStep {
		return current * 2, true
	}
	return current + growthStep, true
}

// LimitPolicy grows like StandardPolicy but never beyond Max bytes. A record
// larger than Max fails with ErrBufferLimit rather than exhausting memory.
type LimitPolicy struct {
	Max int
}

func (p LimitPolicy) GrowTo(current int) (int, bool) {
	if current >= p.Max {
		return 0, false
	}
	next, _ := StandardPolicy{}.GrowTo(current)
	return min(next, p.Max), true
}
