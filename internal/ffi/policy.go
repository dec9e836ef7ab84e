package ffi

import "go.uber.org/zap"

// Policy selects how boundary failures surface to script code. It is built
// once from configuration and handed to every component that maps statuses.
type Policy struct {
	// Strict raises every boundary failure. When false, failures are logged
	// and the caller receives the zero value instead.
	Strict bool
}

// Resolve applies the policy to err. Protocol violations are always returned.
// In lenient mode other failures are logged and swallowed.
func (p Policy) Resolve(log *zap.Logger, err error) error {
	if err == nil {
		return nil
	}
	if p.Strict || IsProtocolViolation(err) {
		return err
	}
	if log != nil {
		log.Warn("boundary call failed, degrading to empty value", zap.Error(err))
	}
	return nil
}
