// Package occurrence counts exact occurrences of a word in a text by
// scanning disjoint token ranges on parallel goroutines.
package occurrence

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nikhilbhutani/wordcount/pkg/chunker"
	"github.com/nikhilbhutani/wordcount/pkg/tokenizer"
)

// ErrWorkerFault is wrapped by every *WorkerFault.
var ErrWorkerFault = errors.New("occurrence worker fault")

// WorkerFault reports a worker that did not run to completion.
// A count that hit a fault has no meaningful partial result.
type WorkerFault struct {
	Worker int
	Start  int
	End    int
	Value  any
	Stack  []byte
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("worker %d [%d, %d) failed: %v", f.Worker, f.Start, f.End, f.Value)
}

func (f *WorkerFault) Unwrap() error {
	return ErrWorkerFault
}

// Result is the outcome of a single count.
type Result struct {
	Count       int `json:"count"`
	Tokens      int `json:"tokens"`
	Workers     int `json:"workers"`
	Parallelism int `json:"parallelism"`
}

// Option configures a Counter.
type Option func(*Counter)

// WithParallelism forces the requested worker count instead of asking the
// runtime. Values below 1 keep the hardware hint.
func WithParallelism(p int) Option {
	return func(c *Counter) {
		if p >= 1 {
			c.parallelism = func() int { return p }
		}
	}
}

// WithLogger sets the logger for fallback and fault reports. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *Counter) {
		if l != nil {
			c.logger = l
		}
	}
}

// Counter is safe for concurrent use. Every call to Count starts its own
// set of workers and waits for all of them before returning.
type Counter struct {
	parallelism func() int
	logger      *zap.Logger

	// scan counts matches in one chunk; replaced in tests to inject faults.
	scan func(tokens []string, word string) int
}

// NewCounter returns a Counter sized to the host's parallelism unless overridden.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{
		parallelism: HardwareParallelism,
		logger:      zap.NewNop(),
		scan:        tokenizer.CountMatches,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HardwareParallelism reports how many goroutines can execute simultaneously,
// falling back to 1 when the runtime reports nothing usable.
func HardwareParallelism() int {
	if n := runtime.GOMAXPROCS(0); n >= 1 {
		return n
	}
	return 1
}

// Count returns the number of whitespace-delimited tokens in text equal to word.
func (c *Counter) Count(text, word string) (Result, error) {
	p := c.parallelism()
	if p < 1 {
		c.logger.Debug("parallelism unavailable, using a single worker", zap.Int("reported", p))
		p = 1
	}

	tokens := tokenizer.Split(text)
	chunks := chunker.Plan(len(tokens), p)

	res := Result{
		Tokens:      len(tokens),
		Workers:     len(chunks),
		Parallelism: p,
	}
	if len(chunks) == 0 {
		return res, nil
	}

	var total tally
	var g errgroup.Group
	for _, ch := range chunks {
		ch := ch
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerFault{
						Worker: ch.Index,
						Start:  ch.Start,
						End:    ch.End,
						Value:  r,
						Stack:  debug.Stack(),
					}
				}
			}()

			// local count first, one lock per worker
			n := c.scan(tokens[ch.Start:ch.End], word)
			total.add(n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("count aborted",
			zap.Error(err),
			zap.Int("tokens", res.Tokens),
			zap.Int("workers", res.Workers),
		)
		return Result{}, err
	}

	res.Count = total.value()
	c.logger.Debug("count finished",
		zap.Int("count", res.Count),
		zap.Int("tokens", res.Tokens),
		zap.Int("workers", res.Workers),
	)
	return res, nil
}

// tally is the accumulator shared by the workers of one count.
type tally struct {
	mu sync.Mutex
	n  int
}

func (t *tally) add(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n += n
}

func (t *tally) value() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

var defaultCounter = NewCounter()

// Count counts word in text using the host's parallelism.
// It panics if a worker fails, since no partial count can be reported.
func Count(text, word string) int {
	res, err := defaultCounter.Count(text, word)
	if err != nil {
		panic(fmt.Errorf("count occurrences of %q: %w", word, err))
	}
	return res.Count
}
