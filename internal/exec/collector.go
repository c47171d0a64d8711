package exec

import (
	"bytes"
)

// truncationMarker is appended to a stream that exceeded the output cap.
const truncationMarker = "\n... [output truncated]"

// collector captures one output stream up to a fixed character cap.
// Writes past the cap are counted as consumed but discarded, so a runaway
// command cannot grow the buffer unboundedly.
type collector struct {
	buffer    bytes.Buffer
	maxBytes  int
	truncated bool
}

func newCollector(maxBytes int) *collector {
	return &collector{maxBytes: maxBytes}
}

func (c *collector) Write(p []byte) (int, error) {
	remaining := c.maxBytes - c.buffer.Len()
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}

	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
		c.truncated = true
	}

	if _, err := c.buffer.Write(toWrite); err != nil {
		return 0, err
	}
	return len(p), nil
}

// String returns the captured stream, with a visible marker when truncated.
func (c *collector) String() string {
	if c.truncated {
		return c.buffer.String() + truncationMarker
	}
	return c.buffer.String()
}

func (c *collector) Truncated() bool {
	return c.truncated
}
