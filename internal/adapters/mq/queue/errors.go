package queue

import "errors"

// ErrClosed is reported when enqueueing on a closed queue.
var ErrClosed = errors.New("queue closed")
