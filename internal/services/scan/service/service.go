// Package service implements the scan service
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"loopguard/internal/core/langhint"
	"loopguard/internal/core/repetition"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/logger"
	"loopguard/internal/platform/metrics"
	"loopguard/internal/services/scan/domain"

	"github.com/google/uuid"
)

// Config for the scan service
type Config struct {
	Workers  int
	PageSize int
	DryRun   bool
}

// clock seams for tests
var (
	now     = time.Now
	newRun  = uuid.NewString
	chunkSz = 256
)

// Service implements domain.RunnerPort and domain.StreamPort
type Service struct {
	Reader  domain.ReaderPort
	Writer  domain.WriterPort
	Det     *repetition.Detector
	Metrics *metrics.Recorder
	Cfg     Config
}

// New constructs a new scan service; a nil detector means the default rules
func New(r domain.ReaderPort, w domain.WriterPort, det *repetition.Detector, rec *metrics.Recorder, cfg Config) *Service {
	if det == nil {
		det = repetition.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 256
	}
	return &Service{Reader: r, Writer: w, Det: det, Metrics: rec, Cfg: cfg}
}

// Scan detects over one record
func (s *Service) Scan(rec domain.Record) domain.Outcome {
	start := now()
	res := s.Det.Detect(rec.Text)
	s.Metrics.ObserveScan(res.Rules(), now().Sub(start))
	return domain.Outcome{Record: rec, Result: res, Script: langhint.Detect(rec.Text).Script}
}

// Run reads pages of records, scans each page on the worker pool and writes the
// outcomes in input order
func (s *Service) Run(ctx context.Context) (domain.Summary, error) {
	sum := domain.Summary{Run: newRun(), ByRule: map[string]int{}}
	if s.Reader == nil || s.Writer == nil {
		return sum, perr.InvalidArgf("scan: reader and writer are required")
	}
	ctx = logger.WithRun(ctx, sum.Run, "")
	log := logger.C(ctx)
	started := now()

	log.Info().Int("workers", s.Cfg.Workers).Int("page", s.Cfg.PageSize).Bool("dry_run", s.Cfg.DryRun).Msg("scan started")

	for {
		page, done, err := s.readPage(ctx)
		if err != nil {
			return sum, err
		}

		out := make([]domain.Outcome, len(page))
		sem := make(chan struct{}, s.Cfg.Workers)
		wg := sync.WaitGroup{}
		for i := range page {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer func() { <-sem; wg.Done() }()
				out[i] = s.Scan(page[i])
			}(i)
		}
		wg.Wait()

		for _, o := range out {
			sum.Add(o)
			if o.Flagged() {
				log.Debug().Str("id", o.Record.ID).Str("verdict", string(o.Result.Verdict())).Msg("loop")
			}
			if s.Cfg.DryRun {
				continue
			}
			if err := s.Writer.Write(ctx, o); err != nil {
				return sum, ioErr(err, "write outcome")
			}
		}
		if done {
			break
		}
	}

	if !s.Cfg.DryRun {
		if err := s.Writer.Flush(); err != nil {
			return sum, ioErr(err, "flush outcomes")
		}
	}
	sum.Elapsed = now().Sub(started)
	log.Info().Int("scanned", sum.Scanned).Int("flagged", sum.Flagged).Dur("elapsed", sum.Elapsed).Msg("scan finished")
	return sum, nil
}

// readPage reads up to PageSize records; done is set once the reader is exhausted
func (s *Service) readPage(ctx context.Context) (page []domain.Record, done bool, err error) {
	page = make([]domain.Record, 0, s.Cfg.PageSize)
	for len(page) < s.Cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return nil, true, err
		}
		rec, err := s.Reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return page, true, nil
		}
		if err != nil {
			return nil, true, ioErr(err, "read record")
		}
		page = append(page, rec)
	}
	return page, false, nil
}

// Watch feeds r to a repetition stream in chunks and stops at the first loop.
// A loop is not an error; the outcome carries it
func (s *Service) Watch(ctx context.Context, r io.Reader) (domain.Outcome, error) {
	id := newRun()
	ctx = logger.WithRun(ctx, "", id)
	log := logger.C(ctx)
	st := repetition.NewStream(s.Det, repetition.WithStreamID(id), repetition.WithLogger(*logger.Named("stream")))

	var (
		seen []byte
		buf  = make([]byte, chunkSz)
	)
	outcome := func() domain.Outcome {
		text := string(seen)
		return domain.Outcome{
			Record: domain.Record{ID: id, Text: text},
			Result: st.Result(),
			Script: langhint.Detect(text).Script,
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			s.Metrics.ObserveStream("canceled")
			return outcome(), err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			seen = append(seen, buf[:n]...)
			if _, err := st.Write(buf[:n]); errors.Is(err, repetition.ErrLoop) {
				s.Metrics.ObserveStream("tripped")
				m, _ := st.Result().Primary()
				log.Info().Str("rule", string(m.Rule)).Int("start", m.Start).Int("seen", st.Len()).Msg("stream stopped")
				return outcome(), nil
			}
		}
		if errors.Is(rerr, io.EOF) {
			st.Flush()
			s.Metrics.ObserveStream(streamOutcome(st))
			return outcome(), nil
		}
		if rerr != nil {
			return outcome(), ioErr(rerr, "read stream")
		}
	}
}

func streamOutcome(st *repetition.Stream) string {
	if st.Tripped() {
		return "tripped"
	}
	return "clean"
}

// ioErr keeps project errors as they are and wraps anything else as IO
func ioErr(err error, msg string) error {
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.Wrap(err, perr.ErrorCodeIO, msg)
}
