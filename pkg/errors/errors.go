// Package errors gives filegen stack-carrying errors from github.com/pkg/errors
// and marks the errors that end a run.
package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	New       = errors.New
	Errorf    = errors.Errorf
	Wrap      = errors.Wrap
	Wrapf     = errors.Wrapf
	WithStack = errors.WithStack
)

func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }
