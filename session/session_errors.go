package session

import "errors"

var ErrUnknownBackend = errors.New("unknown credential backend")
