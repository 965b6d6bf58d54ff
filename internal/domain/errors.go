package domain

import "errors"

var (
	// ErrConfiguration marks a missing credential or invalid setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataUnavailable marks an upstream fetch failure.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrModelUnavailable marks a classifier that cannot produce results.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrPersistence marks a failed artifact write.
	ErrPersistence = errors.New("persistence error")
)
