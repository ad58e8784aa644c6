package tracks

// history is a fixed-capacity ring buffer of observations, oldest first.
type history struct {
	buf  []Observation
	head int // index of the oldest observation
	n    int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]Observation, capacity)}
}

// push appends o, evicting the oldest observation when full.
func (h *history) push(o Observation) (evicted bool) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = o
		h.n++
		return false
	}
	h.buf[h.head] = o
	h.head = (h.head + 1) % len(h.buf)
	return true
}

func (h *history) len() int { return h.n }

// at returns the i-th observation, 0 being the oldest.
func (h *history) at(i int) Observation {
	return h.buf[(h.head+i)%len(h.buf)]
}

func (h *history) last() (Observation, bool) {
	if h.n == 0 {
		return Observation{}, false
	}
	return h.at(h.n - 1), true
}

// lastTwo returns the second-newest and newest observations.
func (h *history) lastTwo() (prev, last Observation, ok bool) {
	if h.n < 2 {
		return Observation{}, Observation{}, false
	}
	return h.at(h.n - 2), h.at(h.n - 1), true
}

// items copies the observations out in time order.
func (h *history) items() []Observation {
	out := make([]Observation, h.n)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}

func (h *history) reset() {
	clear(h.buf)
	h.head = 0
	h.n = 0
}
