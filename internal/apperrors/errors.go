package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so handlers can map it to an HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindNotConnected
	KindConfiguration
	KindPersistence
	KindExternalService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindNotConnected:
		return "not_connected"
	case KindConfiguration:
		return "configuration"
	case KindPersistence:
		return "persistence"
	case KindExternalService:
		return "external_service"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsNotConnected(err error) bool  { return KindOf(err) == KindNotConnected }
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }
