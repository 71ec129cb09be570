package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8 text")
)
