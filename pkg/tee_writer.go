package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// TeeWriter writes every log line to all of its writers. A failing writer
// does not stop the others; the write only fails when every writer failed.
type TeeWriter struct {
	Writers []io.Writer
}

func NewTeeWriter(writers ...io.Writer) *TeeWriter {
	return &TeeWriter{Writers: writers}
}

func (tw *TeeWriter) Write(p []byte) (int, error) {
	var (
		errs error
		ok   bool
	)
	for _, w := range tw.Writers {
		if _, err := w.Write(p); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ok = true
	}
	if !ok && errs != nil {
		return 0, errs
	}
	return len(p), nil
}
