package core

import "errors"

var (
	ErrInsufficientStock    = errors.New("insufficient paper stock")
	ErrConversionFailed     = errors.New("document conversion failed")
	ErrSubmissionFailed     = errors.New("spooler submission failed")
	ErrPollFailed           = errors.New("spooler poll failed")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrInvalidPageSelection = errors.New("invalid page selection")
	ErrJobNotActive         = errors.New("job has no active payment session")
)

// Failure reasons recorded on the job so terminal states stay auditable
// without exposing raw internal error text to the kiosk screen.
const (
	ReasonInsufficientPaper = "insufficient_paper"
	ReasonConversionFailed  = "conversion_failed"
	ReasonSpoolerError      = "spooler_error"
	ReasonInterrupted       = "interrupted"
)
