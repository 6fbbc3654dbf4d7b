package http

import "errors"

var (
	errInvalidSender  = errors.New("missing or invalid sender id")
	errInvalidMessage = errors.New("invalid message")
)
