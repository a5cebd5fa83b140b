package queue

import "errors"

// Sentinel kinds for enqueue errors.
var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)
