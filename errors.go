//go:generate enumer -type ErrorKind

package xmss

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorKind classifies the errors this package returns, so that callers
// can react programmatically instead of matching on error strings.
type ErrorKind uint8

const (
	// A parameter set, OID or name was invalid or unsupported.
	ParamError ErrorKind = iota

	// The entropy source (an io.Reader passed in as randomness) failed
	// or returned fewer bytes than requested.
	EntropyError

	// A private key's signature budget is exhausted: all 2^h one-time
	// leaf indices have already been used.
	Exhausted

	// Signature verification failed: the recovered root does not match
	// the public key, or the encoded fields don't decode cleanly.
	VerifyFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ParamError:
		return "ParamError"
	case EntropyError:
		return "EntropyError"
	case Exhausted:
		return "Exhausted"
	case VerifyFailed:
		return "VerifyFailed"
	default:
		return "UnknownErrorKind"
	}
}

// Error is returned by every exported function in this package that can
// fail.
type Error interface {
	error
	Kind() ErrorKind
	Unwrap() error
}

type errorImpl struct {
	kind  ErrorKind
	msg   string
	inner error
}

func (err *errorImpl) Kind() ErrorKind { return err.kind }
func (err *errorImpl) Unwrap() error   { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

func newError(kind ErrorKind, format string, a ...interface{}) *errorImpl {
	return &errorImpl{kind: kind, msg: fmt.Sprintf(format, a...)}
}

func wrapError(kind ErrorKind, inner error, format string, a ...interface{}) *errorImpl {
	return &errorImpl{kind: kind, msg: fmt.Sprintf(format, a...), inner: inner}
}

func paramErrorf(format string, a ...interface{}) *errorImpl {
	return newError(ParamError, format, a...)
}

func entropyErrorf(format string, a ...interface{}) *errorImpl {
	return newError(EntropyError, format, a...)
}

func exhaustedErrorf(format string, a ...interface{}) *errorImpl {
	return newError(Exhausted, format, a...)
}

func verifyFailedErrorf(format string, a ...interface{}) *errorImpl {
	return newError(VerifyFailed, format, a...)
}

// paramErrorFromMulti turns a (possibly nil) *multierror.Error collecting
// several distinct validation failures into a single ParamError, so a
// caller who mistypes several parameter fields sees every problem in one
// shot instead of only the first.
func paramErrorFromMulti(errs *multierror.Error) Error {
	if errs == nil || errs.Len() == 0 {
		return nil
	}
	errs.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, e := range es {
			msgs[i] = e.Error()
		}
		return fmt.Sprintf("%d parameter error(s): %v", len(es), msgs)
	}
	return &errorImpl{kind: ParamError, msg: errs.Error()}
}
