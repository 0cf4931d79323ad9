package entity

import "errors"

var (
	// Ledger errors
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAccountNotFound     = errors.New("account not found")

	// Generation errors
	ErrEmptyInput         = errors.New("no job details provided")
	ErrExtractionFailed   = errors.New("language model call failed")
	ErrMalformedResponse  = errors.New("language model returned malformed data")
	ErrRenderFailed       = errors.New("invoice rendering failed")
	ErrGenerationNotFound = errors.New("invoice not found")

	// Transcription errors
	ErrEmptyAudio          = errors.New("no audio provided")
	ErrAudioTooLarge       = errors.New("audio recording too large")
	ErrTranscriptionFailed = errors.New("speech transcription failed")

	// Identity and payment errors
	ErrUnauthenticated  = errors.New("not signed in")
	ErrIdentityFailed   = errors.New("identity provider exchange failed")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
