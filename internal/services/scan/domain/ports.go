package domain

import (
	"context"
	"io"
)

// ReaderPort yields records in input order; io.EOF ends the input
type ReaderPort interface {
	Next(ctx context.Context) (Record, error)
}

// WriterPort receives outcomes in input order
type WriterPort interface {
	Write(ctx context.Context, o Outcome) error

	// Flush is called once after the last Write
	Flush() error
}

// RunnerPort is the external port for a batch scan
type RunnerPort interface {
	Run(ctx context.Context) (Summary, error)
}

// StreamPort watches a single growing text and stops at the first loop
type StreamPort interface {
	// Watch consumes r until EOF or the first loop. The outcome's record holds the
	// text consumed so far
	Watch(ctx context.Context, r io.Reader) (Outcome, error)
}

// Ports are dependencies injected into the scan module
type Ports struct {
	Reader ReaderPort // required for Run
	Writer WriterPort // required for Run
}
