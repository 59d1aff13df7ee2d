package repetition

import (
	"context"
	"unicode/utf8"

	perr "loopguard/internal/platform/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrLoop is returned by Stream.Write once the stream has tripped
var ErrLoop = perr.New(perr.ErrorCodeLoop, "repetition loop detected")

// Stream checks a growing text incrementally. Each Append rescans only the kept
// tail (Window()-1 runes) plus the new chunk, so every match that completes inside
// the new chunk is found without rescanning the whole buffer. After the first
// match the stream is tripped and keeps returning that result.
//
// Streams scan raw text with the detector's rules; Normalize, SkipCode and
// MaxScanRunes apply to Detect only. A Stream is not safe for concurrent use.
type Stream struct {
	d    *Detector
	id   string
	log  zerolog.Logger
	keep int

	tail     string // last keep runes seen
	tailBase int    // byte offset of tail in the stream
	seen     int
	pending  []byte // incomplete UTF-8 sequence from the last Write

	res     Result
	tripped bool
}

// StreamOption configures a Stream
type StreamOption func(*Stream)

// WithStreamID overrides the generated stream ID
func WithStreamID(id string) StreamOption {
	return func(s *Stream) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLogger attaches a logger; trips are logged at debug level
func WithLogger(l zerolog.Logger) StreamOption {
	return func(s *Stream) { s.log = l }
}

// NewStream returns a Stream over d (the default detector when d is nil)
func NewStream(d *Detector, opts ...StreamOption) *Stream {
	if d == nil {
		d = std
	}
	s := &Stream{
		d:    d,
		id:   uuid.NewString(),
		log:  zerolog.Nop(),
		keep: d.Window() - 1,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("stream_id", s.id).Logger()
	return s
}

// ID returns the stream identifier
func (s *Stream) ID() string { return s.id }

// Len returns the number of bytes appended so far
func (s *Stream) Len() int { return s.seen }

// Tripped reports whether a loop has been detected
func (s *Stream) Tripped() bool { return s.tripped }

// Result returns the tripping result, or an empty result
func (s *Stream) Result() Result { return s.res }

// Reset clears all state but keeps the ID and detector
func (s *Stream) Reset() {
	s.tail, s.tailBase, s.seen = "", 0, 0
	s.pending = nil
	s.res, s.tripped = Result{}, false
}

// Append adds chunk and scans the trailing window
func (s *Stream) Append(chunk string) Result {
	if s.tripped || chunk == "" {
		return s.res
	}

	window := s.tail + chunk
	s.seen += len(chunk)
	rt := decode(window, s.tailBase)

	if ms, primary := s.d.scan(rt, nil); len(ms) > 0 {
		s.res = Result{Matches: ms, primary: primary}
		s.tripped = true
		m := ms[primary]
		s.log.Debug().
			Str("rule", string(m.Rule)).
			Str("unit", m.Unit).
			Int("count", m.Count).
			Int("start", m.Start).
			Int("seen", s.seen).
			Msg("repetition loop detected")
		return s.res
	}

	cut := tailStart(window, s.keep)
	s.tail = window[cut:]
	s.tailBase += cut
	return s.res
}

// Write implements io.Writer. Bytes of a rune split across writes are held
// until the rune completes. Once tripped, Write returns an error wrapping ErrLoop
func (s *Stream) Write(p []byte) (int, error) {
	if s.tripped {
		return 0, s.loopErr()
	}
	buf := append(s.pending, p...)
	cut := completePrefix(buf)
	s.pending = append([]byte(nil), buf[cut:]...)

	if s.Append(string(buf[:cut])).Matched() {
		return len(p), s.loopErr()
	}
	return len(p), nil
}

// Flush appends any held partial rune as-is
func (s *Stream) Flush() Result {
	if len(s.pending) == 0 {
		return s.res
	}
	p := string(s.pending)
	s.pending = nil
	return s.Append(p)
}

// Watch appends chunks until the stream trips, chunks is closed, or ctx is done.
// It returns ctx.Err() on cancellation; a trip is reported through the Result
func (s *Stream) Watch(ctx context.Context, chunks <-chan string) (Result, error) {
	for {
		select {
		case <-ctx.Done():
			return s.res, ctx.Err()
		case c, ok := <-chunks:
			if !ok {
				return s.Flush(), nil
			}
			if s.Append(c).Matched() {
				return s.res, nil
			}
		}
	}
}

func (s *Stream) loopErr() error {
	m, _ := s.res.Primary()
	return perr.Wrapf(ErrLoop, perr.ErrorCodeLoop, "stream %s: %s unit %q repeated %d times at byte %d",
		s.id, m.Rule, m.Unit, m.Count, m.Start)
}

// completePrefix returns the length of the longest prefix of b that does not end
// in an incomplete UTF-8 sequence
func completePrefix(b []byte) int {
	n := len(b)
	for i := n - 1; i >= 0 && i >= n-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return n
}
