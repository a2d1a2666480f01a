package trpl

import (
	"io"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
)

// Read decodes a measurement from an already-open byte source.  It is a
// trivial alias for Decode kept so callers resolve the path/stream choice
// themselves.
func Read(r io.Reader) (*Dataset, error) {
	return Decode(r)
}

// ReadFile opens the measurement file at path and decodes it.  Opening is
// retried with an exponential backoff, since acquisition software may still
// hold the file for a moment after writing it.  Missing files and format
// errors are not retried.
func ReadFile(path string) (*Dataset, error) {
	var f *os.File
	op := func() error {
		var err error
		f, err = os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		return nil, errors.Wrapf(err, "opening measurement %s", path)
	}
	defer f.Close()
	return Decode(f)
}
