package errors

import "fmt"

// runError ends a run. Its message is shown to the user as is.
type runError struct {
	msg   string
	cause error
}

func (e *runError) Error() string { return e.msg }

func (e *runError) Unwrap() error { return e.cause }

// IsFatal reports whether err, or anything it wraps, ends the run.
func IsFatal(err error) bool {
	var re *runError
	return As(err, &re)
}

// Fatal returns an error that ends the run.
func Fatal(msg string) error {
	return Wrap(&runError{msg: msg}, "Fatal")
}

// Fatalf is Fatal with formatting. The last error argument becomes the cause.
func Fatalf(format string, args ...any) error {
	return Wrap(&runError{msg: fmt.Sprintf(format, args...), cause: lastError(args)}, "Fatal")
}

func lastError(args []any) error {
	for i := len(args) - 1; i >= 0; i-- {
		if err, ok := args[i].(error); ok {
			return err
		}
	}
	return nil
}
