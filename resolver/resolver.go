// Package resolver walks an ordered list of sources and commits to the first
// one that yields a value.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tranvictor/saddle/source"
)

var (
	// ErrResolutionExhausted is matched by an *ExhaustedError.
	ErrResolutionExhausted = errors.New("every source failed")
	// ErrEmptyList is returned when a parameter has no sources at all.
	ErrEmptyList = errors.New("no sources configured")
)

// Result is a committed value together with the source that produced it.
type Result struct {
	Value  source.Value
	Source source.Descriptor
	Index  int
}

// ExhaustedError lists every attempted source, in list order, and why it
// failed. Err is set when the walk stopped because the context ended before
// every source was tried.
type ExhaustedError struct {
	Parameter string
	Attempts  []*source.Failure
	Err       error
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s after %d attempt(s)", e.Parameter, ErrResolutionExhausted, len(e.Attempts))
	for i, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, a)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "\n  stopped: %s", e.Err)
	}
	return b.String()
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrResolutionExhausted
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts)+1)
	for _, a := range e.Attempts {
		errs = append(errs, a)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Descriptors returns the attempted descriptors in order.
func (e *ExhaustedError) Descriptors() []source.Descriptor {
	out := make([]source.Descriptor, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Descriptor
	}
	return out
}

type Option func(*Resolver)

// WithLogger makes the resolver log every attempt at debug level.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

type Resolver struct {
	eval source.Evaluator
	log  *zap.SugaredLogger
}

func New(eval source.Evaluator, opts ...Option) *Resolver {
	r := &Resolver{
		eval: eval,
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve evaluates list in order and returns the first success. Sources
// after the successful one are never evaluated. A fatal failure, or a
// cancelled ctx, stops the walk early.
func (r *Resolver) Resolve(ctx context.Context, parameter string, list source.List) (Result, error) {
	if len(list) == 0 {
		return Result{}, fmt.Errorf("%s: %w", parameter, ErrEmptyList)
	}

	exhausted := &ExhaustedError{Parameter: parameter}
	for i, d := range list {
		if err := ctx.Err(); err != nil {
			exhausted.Err = err
			return Result{}, exhausted
		}

		value, err := r.eval.Evaluate(ctx, d)
		if err == nil {
			r.log.Debugw("source resolved", "parameter", parameter, "source", d.String(), "index", i)
			return Result{Value: value, Source: d, Index: i}, nil
		}

		failure := asFailure(d, err)
		exhausted.Attempts = append(exhausted.Attempts, failure)
		r.log.Debugw("source failed", "parameter", parameter, "source", d.String(), "index", i, "error", failure.Err)
		if failure.Fatal {
			break
		}
	}
	return Result{}, exhausted
}

func asFailure(d source.Descriptor, err error) *source.Failure {
	var failure *source.Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &source.Failure{Descriptor: d, Err: err}
}
