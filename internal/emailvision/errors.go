package emailvision

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind classifies where an Error came from.
type Kind int

const (
	KindConfig Kind = iota + 1
	KindTransport
	KindHTTPStatus
	KindParse
	KindProtocol
	KindInternal
	KindCombined
)

var kindNames = map[Kind]string{
	KindConfig:     "config",
	KindTransport:  "transport",
	KindHTTPStatus: "http status",
	KindParse:      "parse",
	KindProtocol:   "protocol",
	KindInternal:   "internal",
	KindCombined:   "combined",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is returned by every client operation that fails, either for a
// network related reason or for an EmailVision specific one.
type Error struct {
	Kind Kind
	Msg  string
	// Code is the raw code reported alongside the failure, if any.
	Code string
	Err  error
}

// NewError builds an Error without needing a Client.
func NewError(kind Kind, msg, code string) *Error {
	return &Error{Kind: kind, Msg: msg, Code: code}
}

func wrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "emailvision: " + e.Msg
	}
	return fmt.Sprintf("emailvision: %s (%s)", e.Msg, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Number parses Code as an integer. Codes that are not numeric are kept
// as text and report false.
func (e *Error) Number() (int, bool) {
	if e.Code == "" {
		return 0, false
	}
	n, err := strconv.Atoi(e.Code)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsKind reports whether any Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		return e.Kind == kind || IsKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsKind(e.Unwrap(), kind)
	}
	return false
}

// combineErrors folds a close failure and the error that was already in
// flight into a single Error. Both stay reachable through errors.Is/As.
func combineErrors(closeErr, prior error) *Error {
	return &Error{
		Kind: KindCombined,
		Msg: fmt.Sprintf("connection close failure: %v; error raised prior to connection close: %v",
			closeErr, prior),
		Err: errors.Join(closeErr, prior),
	}
}
