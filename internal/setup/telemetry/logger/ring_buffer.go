package logger

// RingBuffer holds the most recent log lines up to a fixed capacity.
type RingBuffer struct {
	lines     []string
	capacity  int
	next      int // index of the next write
	size      int // lines currently held
	totalSeen int // lines added since the last rotation
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

func (rb *RingBuffer) add(line string) {
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % rb.capacity
	rb.size = min(rb.size+1, rb.capacity)
	rb.totalSeen++
}

// getLines returns the held lines oldest first.
func (rb *RingBuffer) getLines() []string {
	if rb.size == 0 {
		return nil
	}

	start := (rb.next - rb.size + rb.capacity) % rb.capacity
	result := make([]string, 0, rb.size)

	for i := range rb.size {
		result = append(result, rb.lines[(start+i)%rb.capacity])
	}

	return result
}
