package service

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSessionNotFound  = errors.New("session not found")
	ErrRetrievalFailed  = errors.New("retrieval failed")
	ErrGenerationFailed = errors.New("generation failed")
)
