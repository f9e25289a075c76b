package lp

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/srand/solvelink/pkg/model"
)

// Encode serializes the model through a streaming base64 encoder and
// returns the encoded payload.
func Encode(m *model.Model, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer

	encoder := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := Write(m, encoder, opts...); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, &WriteError{Err: err}
	}

	return buf.Bytes(), nil
}

// WriteFile writes the model to path. Paths ending in .gz are compressed.
// A partially written file is removed on error.
func WriteFile(fs afero.Fs, path string, m *model.Model, opts ...Option) (err error) {
	if err := CheckCapabilities(m); err != nil {
		return err
	}

	file, err := fs.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fs.Remove(path)
		}
	}()

	buffered := bufio.NewWriter(file)

	var w io.Writer = buffered
	flushers := []func() error{buffered.Flush}

	if strings.HasSuffix(path, ".gz") {
		compressor := gzip.NewWriter(buffered)
		w = compressor
		flushers = append([]func() error{compressor.Close}, flushers...)
	}

	if err = Write(m, w, opts...); err != nil {
		return err
	}

	for _, flush := range flushers {
		if err = flush(); err != nil {
			return &WriteError{Err: err}
		}
	}

	return nil
}
