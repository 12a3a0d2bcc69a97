package constitution

import "errors"

// ErrConfigInvalid marks a constitution profile that must not be served.
var ErrConfigInvalid = errors.New("constitution profile invalid")
