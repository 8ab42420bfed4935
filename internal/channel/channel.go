// Package channel implements the bounded FIFO that connects adjacent
// pipeline stages: records flow downstream, acknowledgement tokens flow
// upstream. Adapted from the teacher's plugin-channel convention
// (plugins.SFChannel wrapping a single directional Go channel) and
// generalized to carry the reverse ack path a route needs for durable
// checkpointing.
package channel

import (
	"github.com/logship/logshipd/internal/record"
)

// DefaultCapacity is the global default channel capacity (§4.1).
const DefaultCapacity = 128

// MinCapacity and MaxCapacity bound the admissible channel_size range.
const (
	MinCapacity = 2
	MaxCapacity = 1024
)

// Channel is a bounded FIFO carrying Records downstream and ack tokens
// upstream. Producers block when Records is full; consumers block when it
// is empty. Acks mirror the same discipline in the opposite direction.
type Channel struct {
	Records chan *record.Record
	Acks    chan record.Token
}

// New creates a Channel with the given capacity, clamped to
// [MinCapacity, MaxCapacity].
func New(capacity int) *Channel {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Channel{
		Records: make(chan *record.Record, capacity),
		Acks:    make(chan record.Token, capacity),
	}
}

// Close closes the forward Records channel. Callers must stop sending
// before calling Close, per normal Go channel discipline.
func (c *Channel) Close() {
	close(c.Records)
}

// CloseAcks closes the reverse Acks channel.
func (c *Channel) CloseAcks() {
	close(c.Acks)
}
