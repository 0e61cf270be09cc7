// Package tracker records scalar training metrics to event
// directories so that runs can be inspected after the fact.
package tracker

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// scalarsFile is the file inside an event directory that scalar
// entries are appended to
const scalarsFile string = "scalars.jsonl"

// Scalar is a single recorded metric value
type Scalar struct {
	Tag      string
	Step     int
	Value    float64
	WallTime int64 // Unix nanoseconds
}

// ScalarWriter appends scalar metrics to an event directory, one JSON
// line per scalar. An agent owns two: one for training metrics and one
// for validation metrics.
type ScalarWriter struct {
	dir  string
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewScalarWriter opens a writer on the event directory dir, creating
// it if needed. Entries append to any existing ones, so a resumed run
// continues the same event stream.
func NewScalarWriter(dir string) (*ScalarWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "newscalarwriter: could not create %v",
			dir)
	}

	path := filepath.Join(dir, scalarsFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "newscalarwriter: could not open %v",
			path)
	}

	buf := bufio.NewWriter(file)
	return &ScalarWriter{
		dir:  dir,
		file: file,
		buf:  buf,
		enc:  json.NewEncoder(buf),
	}, nil
}

// Dir returns the event directory the writer records to
func (w *ScalarWriter) Dir() string {
	return w.dir
}

// AddScalar appends one scalar entry keyed by step
func (w *ScalarWriter) AddScalar(tag string, value float64, step int) error {
	entry := Scalar{
		Tag:      tag,
		Step:     step,
		Value:    value,
		WallTime: time.Now().UnixNano(),
	}
	if err := w.enc.Encode(entry); err != nil {
		return errors.Wrapf(err, "addscalar: could not record %v", tag)
	}
	return nil
}

// Flush writes any buffered entries to disk
func (w *ScalarWriter) Flush() error {
	return w.buf.Flush()
}

// Close flushes and closes the writer
func (w *ScalarWriter) Close() error {
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "close")
	}
	return w.file.Close()
}

// LoadScalars reads back every scalar recorded in an event directory
func LoadScalars(dir string) ([]Scalar, error) {
	path := filepath.Join(dir, scalarsFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loadscalars: could not open %v", path)
	}
	defer file.Close()

	var scalars []Scalar
	dec := json.NewDecoder(file)
	for {
		var entry Scalar
		if err := dec.Decode(&entry); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "loadscalars: could not decode %v",
				path)
		}
		scalars = append(scalars, entry)
	}
	return scalars, nil
}
