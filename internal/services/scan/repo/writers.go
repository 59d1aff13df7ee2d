package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"loopguard/internal/core/repetition"
	perr "loopguard/internal/platform/errors"
	str "loopguard/internal/platform/strings"
	"loopguard/internal/services/scan/domain"
)

// WriterOptions control which outcomes are written and how
type WriterOptions struct {
	FlaggedOnly bool // skip clean records
	Truncate    bool // include the text cut after the first unit of the loop
}

// TextWriter writes tab-aligned rows: id, verdict, unit, count, script
type TextWriter struct {
	tw     *tabwriter.Writer
	opts   WriterOptions
	header bool
}

// NewTextWriter returns a domain.WriterPort writing to w; call Flush at the end
func NewTextWriter(w io.Writer, opts WriterOptions) *TextWriter {
	return &TextWriter{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0), opts: opts}
}

// Write implements domain.WriterPort
func (t *TextWriter) Write(_ context.Context, o domain.Outcome) error {
	if t.opts.FlaggedOnly && !o.Flagged() {
		return nil
	}
	if !t.header {
		t.header = true
		cols := "ID\tVERDICT\tUNIT\tCOUNT\tSCRIPT"
		if t.opts.Truncate {
			cols += "\tTRUNCATED"
		}
		if _, err := fmt.Fprintln(t.tw, cols); err != nil {
			return perr.Wrap(err, perr.ErrorCodeIO, "write header")
		}
	}

	unit, count := "-", "-"
	if m, ok := o.Result.Primary(); ok {
		unit, count = fmt.Sprintf("%q", m.Unit), fmt.Sprint(m.Count)
	}
	row := []string{o.Record.ID, string(o.Result.Verdict()), unit, count, str.Dash(o.Script)}
	if t.opts.Truncate {
		row = append(row, fmt.Sprintf("%q", truncated(o)))
	}
	if _, err := fmt.Fprintln(t.tw, strings.Join(row, "\t")); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "write row")
	}
	return nil
}

// Flush implements domain.WriterPort
func (t *TextWriter) Flush() error {
	return perr.WrapIf(t.tw.Flush(), perr.ErrorCodeIO, "flush")
}

// JSONLWriter writes one JSON object per outcome
type JSONLWriter struct {
	enc  *json.Encoder
	opts WriterOptions
}

type jsonRow struct {
	ID        string             `json:"id"`
	Verdict   repetition.Verdict `json:"verdict"`
	Script    string             `json:"script,omitempty"`
	Matches   []repetition.Match `json:"matches,omitempty"`
	Truncated *string            `json:"truncated,omitempty"`
}

// NewJSONLWriter returns a domain.WriterPort writing to w
func NewJSONLWriter(w io.Writer, opts WriterOptions) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc, opts: opts}
}

// Write implements domain.WriterPort
func (j *JSONLWriter) Write(_ context.Context, o domain.Outcome) error {
	if j.opts.FlaggedOnly && !o.Flagged() {
		return nil
	}
	row := jsonRow{
		ID:      o.Record.ID,
		Verdict: o.Result.Verdict(),
		Script:  o.Script,
		Matches: o.Result.Matches,
	}
	if j.opts.Truncate && o.Flagged() {
		s := truncated(o)
		row.Truncated = &s
	}
	return perr.WrapIf(j.enc.Encode(row), perr.ErrorCodeIO, "encode outcome")
}

// Flush implements domain.WriterPort
func (j *JSONLWriter) Flush() error { return nil }

// MemoryWriter collects outcomes; safe for concurrent use
type MemoryWriter struct {
	mu      sync.Mutex
	xs      []domain.Outcome
	flushed bool
}

// Write implements domain.WriterPort
func (m *MemoryWriter) Write(_ context.Context, o domain.Outcome) error {
	m.mu.Lock()
	m.xs = append(m.xs, o)
	m.mu.Unlock()
	return nil
}

// Flush implements domain.WriterPort
func (m *MemoryWriter) Flush() error {
	m.mu.Lock()
	m.flushed = true
	m.mu.Unlock()
	return nil
}

// Outcomes returns a copy of what was written
func (m *MemoryWriter) Outcomes() []domain.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Outcome(nil), m.xs...)
}

// Flushed reports whether Flush was called
func (m *MemoryWriter) Flushed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushed
}

func truncated(o domain.Outcome) string {
	m, ok := o.Result.Primary()
	if !ok {
		return o.Record.Text
	}
	text := o.Result.Text
	if text == "" {
		text = o.Record.Text
	}
	return repetition.Truncate(text, m)
}
