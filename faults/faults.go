// Package faults defines the error taxonomy shared by the managers and the
// document store. Every remote operation either succeeds or yields one of
// these kinds; errors are never swallowed on the way to the caller.
package faults

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unknown is the zero kind, reported for errors that did not come
	// through this package.
	Unknown Kind = iota
	// Transport covers network and store-unreachable failures.
	Transport
	// Timeout is a bounded remote call that expired.
	Timeout
	// NotFound means the queried id is absent.
	NotFound
	// Validation is a client-side rejection raised before any remote call.
	Validation
	// IllegalTransition is an order status change the transition table forbids.
	IllegalTransition
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Timeout:
		return "timeout"
	case NotFound:
		return "not found"
	case Validation:
		return "validation"
	case IllegalTransition:
		return "illegal transition"
	}
	return "unknown"
}

type Fault struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (f *Fault) Error() string {
	switch {
	case f.Msg != "" && f.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", f.Op, f.Kind, f.Msg, f.Err)
	case f.Msg != "":
		return fmt.Sprintf("%s: %s: %s", f.Op, f.Kind, f.Msg)
	case f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Op, f.Kind)
}

func (f *Fault) Unwrap() error { return f.Err }

// New builds a fault with a caller-facing message.
func New(kind Kind, op, msg string) error {
	return &Fault{Kind: kind, Op: op, Msg: msg}
}

// Wrap attaches a kind and operation to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Op: op, Err: err}
}

// KindOf classifies err, walking the wrap chain.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

func IsNotFound(err error) bool          { return KindOf(err) == NotFound }
func IsValidation(err error) bool        { return KindOf(err) == Validation }
func IsIllegalTransition(err error) bool { return KindOf(err) == IllegalTransition }
func IsTimeout(err error) bool           { return KindOf(err) == Timeout }
func IsTransport(err error) bool         { return KindOf(err) == Transport }
