package entities

import "errors"

var (
	ErrSeatsUnavailable = errors.New("selected seats are not available")
	ErrNoSeatsSelected  = errors.New("no seats selected")
	ErrShowNotFound     = errors.New("show not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidSession   = errors.New("payment session not found")
	ErrUpstream         = errors.New("upstream failure")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// PermanentError marks a message handling failure that retrying will not fix.
type PermanentError struct {
	Err error
}

func (p PermanentError) Error() string {
	return "permanent: " + p.Err.Error()
}

func (p PermanentError) Unwrap() error {
	return p.Err
}

func (p PermanentError) IsPermanent() bool {
	return true
}

func IsPermanent(err error) bool {
	var permanent interface{ IsPermanent() bool }
	return errors.As(err, &permanent) && permanent.IsPermanent()
}
