package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrResourceMissing marks a language resource (stopwords, lemmatizer
	// dictionary, tagger model) that could not be loaded at startup.
	ErrResourceMissing = errors.New("resource missing")

	// ErrNotFitted is returned when a corpus-level model is used before Fit.
	ErrNotFitted = errors.New("model not fitted")

	ErrEmptyCorpus = errors.New("empty corpus")
)
