// Package errs attaches an operation name and a sentinel kind to errors so
// callers can branch with errors.Is while logs keep the full chain.
package errs

import "strings"

// E is an operation error. Kind is a package sentinel, Err the cause.
type E struct {
	Op   string
	Kind error
	Err  error
}

func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *E) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &E{Op: op, Kind: kind}
}

// Wrap annotates err with op. Nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, Err: err}
}

// WrapKind annotates err with op and kind. Nil stays nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, Kind: kind, Err: err}
}
