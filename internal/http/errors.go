package http

import (
	"errors"
	"strings"
)

// error kinds, match them with [errors.Is]
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrTooManyRedirects    = errors.New("too many redirects")
	ErrRedirectRejected    = errors.New("redirect not allowed")
	ErrTransport           = errors.New("transport failure")
	ErrLocalResource       = errors.New("local resource failure")
	ErrScriptEvaluation    = errors.New("script evaluation failed")
	ErrParse               = errors.New("parse failure")

	ErrBodyUsed        = errors.New("body source already used")
	ErrBodyRead        = errors.New("body read failure")
	ErrResponseWritten = errors.New("response already written")
)

// Error is returned by every failing operation of this module. Kind is one
// of the sentinel errors above, Err is the underlying cause if there is one.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	b := strings.Builder{}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError wraps err into an *[Error] of the given kind. errors that are
// already an *[Error] are returned untouched so the innermost kind wins.
func NewError(kind error, op string, err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates an *[Error] with a plain text cause.
func Errorf(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}
