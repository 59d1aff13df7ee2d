// Package repo provides record readers and outcome writers for the scan service
package repo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	perr "loopguard/internal/platform/errors"
	"loopguard/internal/services/scan/domain"
)

// maxLine bounds a single input line
const maxLine = 4 << 20

// LineReader yields one record per non-blank line, IDs are 1-based line numbers
type LineReader struct {
	sc   *bufio.Scanner
	line int
}

// NewLineReader returns a domain.ReaderPort over r
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &LineReader{sc: sc}
}

// Next implements domain.ReaderPort
func (l *LineReader) Next(ctx context.Context) (domain.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Record{}, err
		}
		if !l.sc.Scan() {
			if err := l.sc.Err(); err != nil {
				return domain.Record{}, perr.Wrapf(err, perr.ErrorCodeIO, "line %d", l.line+1)
			}
			return domain.Record{}, io.EOF
		}
		l.line++
		text := strings.TrimRight(l.sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		return domain.Record{ID: strconv.Itoa(l.line), Text: text}, nil
	}
}

// JSONLReader yields records from JSON lines {"id": "...", "text": "..."}.
// A missing id becomes the line number
type JSONLReader struct {
	sc   *bufio.Scanner
	line int
}

// NewJSONLReader returns a domain.ReaderPort over r
func NewJSONLReader(r io.Reader) *JSONLReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &JSONLReader{sc: sc}
}

// Next implements domain.ReaderPort
func (j *JSONLReader) Next(ctx context.Context) (domain.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Record{}, err
		}
		if !j.sc.Scan() {
			if err := j.sc.Err(); err != nil {
				return domain.Record{}, perr.Wrapf(err, perr.ErrorCodeIO, "line %d", j.line+1)
			}
			return domain.Record{}, io.EOF
		}
		j.line++
		b := j.sc.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		var rec domain.Record
		if err := json.Unmarshal(b, &rec); err != nil {
			var syn *json.SyntaxError
			if errors.As(err, &syn) {
				return domain.Record{}, perr.Wrapf(err, perr.ErrorCodeDecode, "line %d: offset %d", j.line, syn.Offset)
			}
			return domain.Record{}, perr.Wrapf(err, perr.ErrorCodeDecode, "line %d", j.line)
		}
		if rec.ID == "" {
			rec.ID = strconv.Itoa(j.line)
		}
		return rec, nil
	}
}

// SliceReader yields the given records; handy for tests and in-process callers
type SliceReader struct {
	xs []domain.Record
	i  int
}

// NewSliceReader returns a domain.ReaderPort over xs
func NewSliceReader(xs ...domain.Record) *SliceReader { return &SliceReader{xs: xs} }

// Next implements domain.ReaderPort
func (s *SliceReader) Next(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	if s.i >= len(s.xs) {
		return domain.Record{}, io.EOF
	}
	s.i++
	return s.xs[s.i-1], nil
}
