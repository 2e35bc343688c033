package llm

import "errors"

// dependencyUnavailableError signals that the inference runtime is not
// compiled into this binary.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// loadError wraps a failure to acquire a model.
type loadError struct {
	path string
	err  error
}

func (e loadError) Error() string { return "load " + e.path + ": " + e.err.Error() }
func (e loadError) Unwrap() error { return e.err }

// IsLoadError reports whether err came from Adapter.Load inside With.
func IsLoadError(err error) bool {
	var e loadError
	return errors.As(err, &e)
}

// releaseError wraps a failure from Handle.Close inside With.
type releaseError struct{ err error }

func (e releaseError) Error() string { return "release model: " + e.err.Error() }
func (e releaseError) Unwrap() error { return e.err }

// IsReleaseError reports whether err came from releasing a handle.
func IsReleaseError(err error) bool {
	var e releaseError
	return errors.As(err, &e)
}
