package session

// Key is one of the inputs the loop reacts to.
type Key uint8

const (
	// KeyNone is ignored.
	KeyNone Key = iota
	KeyQuit
	KeyBuild
	KeyUp
	KeyDown
)

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyBuild:
		return "build"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	default:
		return "none"
	}
}

// Queue carries keys from the input reader to the loop.
// Push and Drain never block.
type Queue struct {
	ch chan Key
}

// NewQueue creates a queue holding at most size pending keys.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{ch: make(chan Key, size)}
}

// Push enqueues k. It reports false when k is KeyNone or the queue is full.
func (q *Queue) Push(k Key) bool {
	if k == KeyNone {
		return false
	}
	select {
	case q.ch <- k:
		return true
	default:
		return false
	}
}

// Drain returns every key currently queued, in arrival order.
func (q *Queue) Drain() []Key {
	var keys []Key
	for {
		select {
		case k := <-q.ch:
			keys = append(keys, k)
		default:
			return keys
		}
	}
}
