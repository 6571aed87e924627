package backend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/yaklabco/mdconvert/internal/logging"
)

// ErrPanic wraps a panic recovered from a backend attempt.
var ErrPanic = errors.New("backend panicked")

// Settings configures the registered backends.
type Settings struct {
	Pandoc   PandocOptions
	Document DocumentOptions
}

// Names lists the registered backend names.
func Names() []string {
	return []string{NamePandoc, NameNative, NameLayout}
}

// New constructs the named backend.
//
//nolint:ireturn // callers choose backends by name
func New(name string, settings Settings, avail Availability) (Backend, error) {
	switch name {
	case NamePandoc:
		return NewPandoc(settings.Pandoc, avail), nil
	case NameNative:
		return NewNative(settings.Document), nil
	case NameLayout:
		return NewLayout(settings.Document), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Step is the record of one backend in a chain run.
type Step struct {
	Backend string
	Err     error
	Skipped bool
	Elapsed time.Duration
}

// OK reports whether the step produced the output.
func (s Step) OK() bool {
	return !s.Skipped && s.Err == nil
}

// Chain is the ordered list of backends tried for one format.
type Chain struct {
	Format   Format
	Backends []Backend
}

// NewChain builds a chain from backend names in preference order.
func NewChain(format Format, names []string, settings Settings, avail Availability) (*Chain, error) {
	chain := &Chain{Format: format}
	for _, name := range names {
		b, err := New(name, settings, avail)
		if err != nil {
			return nil, err
		}
		chain.Backends = append(chain.Backends, b)
	}
	return chain, nil
}

// Run tries each backend in order and stops at the first success. Backends
// that fail Check are skipped. When nothing succeeds the error wraps
// ErrNoBackend and every step's reason.
func (c *Chain) Run(ctx context.Context, job Job) ([]Step, error) {
	job.Format = c.Format
	logger := logging.FromContext(ctx)

	steps := make([]Step, 0, len(c.Backends))
	var reasons []error

	for _, b := range c.Backends {
		if err := b.Check(c.Format); err != nil {
			logger.Debug("skipping backend",
				logging.FieldBackend, b.Name(),
				logging.FieldFormat, c.Format,
				logging.FieldError, err)
			steps = append(steps, Step{Backend: b.Name(), Err: err, Skipped: true})
			reasons = append(reasons, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		start := time.Now()
		err := attempt(ctx, b, job)
		step := Step{Backend: b.Name(), Err: err, Elapsed: time.Since(start)}
		steps = append(steps, step)

		if err == nil {
			logger.Debug("backend succeeded",
				logging.FieldBackend, b.Name(),
				logging.FieldFormat, c.Format,
				logging.FieldElapsed, step.Elapsed)
			return steps, nil
		}

		logger.Debug("backend failed",
			logging.FieldBackend, b.Name(),
			logging.FieldFormat, c.Format,
			logging.FieldError, err)
		reasons = append(reasons, fmt.Errorf("%s: %w", b.Name(), err))

		if ctxErr := ctx.Err(); ctxErr != nil {
			return steps, ctxErr
		}
	}

	if len(reasons) == 0 {
		return steps, fmt.Errorf("%w for %s: no backends configured", ErrNoBackend, c.Format)
	}
	return steps, fmt.Errorf("%w for %s: %w", ErrNoBackend, c.Format, errors.Join(reasons...))
}

func attempt(ctx context.Context, b Backend, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Debug("backend panic",
				logging.FieldBackend, b.Name(),
				"stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return b.Attempt(ctx, job)
}
