package buffer

import "errors"

// ErrMaxSizeExceeded is returned by Reserve/Resize/Grow when growing the
// buffer would exceed the bound set by SetMaxSize. It surfaces to callers as
// an mprpcerr.UnexpectedError (allocation failure is fatal per spec §4.1).
var ErrMaxSizeExceeded = errors.New("buffer: max size exceeded")
