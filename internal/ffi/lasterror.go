package ffi

// ErrorSource exposes the detail message of the most recent failed call.
type ErrorSource interface {
	LastError(buf *FixedBuffer) Status
}

const lastErrorSize = 128

// Describe turns a failed status into an *Error carrying the host's detail
// message. StatusOK yields nil.
func Describe(src ErrorSource, op string, s Status) error {
	if s == StatusOK {
		return nil
	}
	e := &Error{Op: op, Status: s}
	if src == nil {
		return e
	}
	buf := NewFixedBuffer(lastErrorSize)
	st := src.LastError(buf)
	if st == StatusBufferTooSmall {
		buf.Grow()
		st = src.LastError(buf)
	}
	if st == StatusOK {
		if msg, cst := buf.String(); cst == StatusOK {
			e.Detail = msg
		}
	}
	return e
}
