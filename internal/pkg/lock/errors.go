package lock

import "errors"

// ErrLockTimeout is returned when a user lock cannot be acquired in time.
var ErrLockTimeout = errors.New("lock acquisition timeout")
