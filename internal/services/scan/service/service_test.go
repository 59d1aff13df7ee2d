package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"loopguard/internal/core/repetition"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/metrics"
	kit "loopguard/internal/platform/testkit"
	"loopguard/internal/services/scan/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type sliceReader struct {
	xs  []domain.Record
	i   int
	err error // returned instead of io.EOF when set
}

func (r *sliceReader) Next(context.Context) (domain.Record, error) {
	if r.i >= len(r.xs) {
		if r.err != nil {
			return domain.Record{}, r.err
		}
		return domain.Record{}, io.EOF
	}
	r.i++
	return r.xs[r.i-1], nil
}

type memWriter struct {
	xs      []domain.Outcome
	flushed int
	failAt  int
}

func (w *memWriter) Write(_ context.Context, o domain.Outcome) error {
	if w.failAt > 0 && len(w.xs)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.xs = append(w.xs, o)
	return nil
}

func (w *memWriter) Flush() error { w.flushed++; return nil }

func records(texts ...string) []domain.Record {
	out := make([]domain.Record, len(texts))
	for i, t := range texts {
		out[i] = domain.Record{ID: strconv.Itoa(i + 1), Text: t}
	}
	return out
}

var mixed = []string{
	"什么是NYLA Go?",
	strings.Repeat("旺柴", 13),
	"WangChai is great! WangChai is great! WangChai is great! WangChai is great!",
	"a normal sentence",
	"关于旺柴的信息，关于旺柴的信息，关于旺柴的信息，关于旺柴的信息",
	"",
	"Visit https://x.com/WangChaidotbonk https://x.com/WangChaidotbonk https://x.com/WangChaidotbonk",
}

func TestRun_OrderAndSummary(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &newRun, func() string { return "run-1" })

	for _, cfg := range []Config{
		{Workers: 1, PageSize: 1},
		{Workers: 4, PageSize: 3},
		{Workers: 8, PageSize: 256},
	} {
		w := &memWriter{}
		rec := metrics.New()
		s := New(&sliceReader{xs: records(mixed...)}, w, nil, rec, cfg)

		sum, err := s.Run(context.Background())
		if err != nil {
			t.Fatalf("%+v: %v", cfg, err)
		}
		if sum.Run != "run-1" || sum.Scanned != len(mixed) || sum.Flagged != 3 {
			t.Fatalf("%+v: summary = %+v", cfg, sum)
		}
		if sum.ByRule["generic"] != 3 || sum.ByRule["cjk"] != 1 {
			t.Fatalf("%+v: ByRule = %v", cfg, sum.ByRule)
		}
		if len(w.xs) != len(mixed) || w.flushed != 1 {
			t.Fatalf("%+v: wrote %d, flushed %d", cfg, len(w.xs), w.flushed)
		}
		for i, o := range w.xs {
			if o.Record.ID != strconv.Itoa(i+1) {
				t.Fatalf("%+v: outcome %d has id %s; order not preserved", cfg, i, o.Record.ID)
			}
		}
		if w.xs[1].Script != "Han" || w.xs[3].Script != "Latin" || w.xs[5].Script != "" {
			t.Fatalf("scripts = %q %q %q", w.xs[1].Script, w.xs[3].Script, w.xs[5].Script)
		}
	}
}

func TestRun_Metrics(t *testing.T) {
	rec := metrics.New()
	s := New(&sliceReader{xs: records(mixed...)}, &memWriter{}, nil, rec, Config{Workers: 2})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	n, err := testutil.GatherAndCount(rec.Registry(), "loopguard_texts_scanned_total")
	if err != nil || n != 1 {
		t.Fatalf("scanned series = %d, %v", n, err)
	}
	if n, _ := testutil.GatherAndCount(rec.Registry(), "loopguard_loops_detected_total"); n != 2 {
		t.Fatalf("detected series = %d, want 2 (generic, cjk)", n)
	}
}

func TestRun_DryRun(t *testing.T) {
	w := &memWriter{}
	s := New(&sliceReader{xs: records(mixed...)}, w, nil, nil, Config{DryRun: true})
	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Flagged != 3 || len(w.xs) != 0 || w.flushed != 0 {
		t.Fatalf("dry run wrote %d outcomes, flushed %d, summary %+v", len(w.xs), w.flushed, sum)
	}
}

func TestRun_Elapsed(t *testing.T) {
	kit.Serial(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	kit.Swap(t, &now, func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	})

	s := New(&sliceReader{xs: records("one")}, &memWriter{}, nil, nil, Config{})
	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Elapsed <= 0 {
		t.Fatalf("Elapsed = %v", sum.Elapsed)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing ports", func(t *testing.T) {
		_, err := New(nil, nil, nil, nil, Config{}).Run(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("reader failure is wrapped as IO", func(t *testing.T) {
		r := &sliceReader{xs: records("a"), err: errors.New("boom")}
		_, err := New(r, &memWriter{}, nil, nil, Config{}).Run(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeIO) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("reader project errors pass through", func(t *testing.T) {
		r := &sliceReader{err: perr.Decodef("line 3: bad json")}
		_, err := New(r, &memWriter{}, nil, nil, Config{}).Run(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeDecode) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("writer failure", func(t *testing.T) {
		w := &memWriter{failAt: 2}
		sum, err := New(&sliceReader{xs: records(mixed...)}, w, nil, nil, Config{}).Run(context.Background())
		if !perr.IsCode(err, perr.ErrorCodeIO) || len(w.xs) != 1 {
			t.Fatalf("err = %v, wrote %d", err, len(w.xs))
		}
		if sum.Scanned != 2 {
			t.Fatalf("summary should count up to the failure: %+v", sum)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(&sliceReader{xs: records(mixed...)}, &memWriter{}, nil, nil, Config{}).Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestScan_CustomDetector(t *testing.T) {
	det := repetition.MustNew(repetition.Options{Rules: []repetition.Rule{repetition.CJKRule()}})
	s := New(nil, nil, det, nil, Config{})
	o := s.Scan(domain.Record{ID: "x", Text: "WangChai is great! WangChai is great! WangChai is great! WangChai is great!"})
	if o.Flagged() {
		t.Fatalf("generic rule is not configured: %+v", o.Result.Matches)
	}
}

func TestWatch(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &chunkSz, 5)

	t.Run("trips", func(t *testing.T) {
		rec := metrics.New()
		s := New(nil, nil, nil, rec, Config{})
		in := "答：" + strings.Repeat("旺柴", 20)
		o, err := s.Watch(context.Background(), strings.NewReader(in))
		if err != nil {
			t.Fatal(err)
		}
		m, ok := o.Result.Primary()
		if !ok || m.Rule != repetition.CJK || m.Start != len("答：") {
			t.Fatalf("result = %+v", o.Result.Matches)
		}
		if len(o.Record.Text) >= len(in) {
			t.Fatalf("watch should stop early, consumed %d of %d bytes", len(o.Record.Text), len(in))
		}
		if got := repetition.Truncate(o.Record.Text, m); got != "答：旺柴" {
			t.Fatalf("truncated = %q", got)
		}
		if n, _ := testutil.GatherAndCount(rec.Registry(), "loopguard_streams_total"); n != 1 {
			t.Fatalf("stream outcomes = %d series, want 1", n)
		}
	})

	t.Run("clean", func(t *testing.T) {
		o, err := New(nil, nil, nil, nil, Config{}).Watch(context.Background(), strings.NewReader("什么是NYLA Go?"))
		if err != nil || o.Flagged() || o.Record.Text != "什么是NYLA Go?" || o.Script != "Han" {
			t.Fatalf("outcome = %+v, %v", o, err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(nil, nil, nil, nil, Config{}).Watch(ctx, strings.NewReader("x"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		_, err := New(nil, nil, nil, nil, Config{}).Watch(context.Background(), failingReader{})
		if !perr.IsCode(err, perr.ErrorCodeIO) {
			t.Fatalf("err = %v", err)
		}
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("pipe closed") }
