package commands

import (
	"errors"
	"log/slog"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the logged error is the output.
	return "error already printed"
}

func (e printedError) Unwrap() error {
	return e.err
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	var pe printedError
	if errors.As(err, &pe) {
		return err
	}
	attrs := []any{"error", err.Error()}
	type slogAttrError interface {
		SlogAttrs() []any
	}
	var detailed slogAttrError
	if errors.As(err, &detailed) {
		attrs = append(attrs, detailed.SlogAttrs()...)
	}
	slog.Error("command error", attrs...)
	return printedError{err: err}
}
