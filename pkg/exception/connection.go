package exception

import "github.com/yanun0323/errors"

var (
	ErrAdapterRejected = errors.New("adapter rejected request")
	ErrQueueFull       = errors.New("event queue full")
	ErrQueueClosed     = errors.New("event queue closed")
)
