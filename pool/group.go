// Package pool runs a fixed-size set of worker loops.
package pool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidSize    = errors.New("pool: size must be > 0")
	ErrWorkerPanicked = errors.New("pool: worker panicked")
)

// Loop is the body of one worker. It receives the group context and the worker id
// (0 <= id < size) and returns when the worker should exit.
type Loop func(ctx context.Context, id int) error

// Group is a fixed-size set of worker goroutines.
//
// The first worker that returns an error or panics cancels the group context so the
// remaining loops can exit; Wait reports that first error. A panic is converted into
// an error wrapping ErrWorkerPanicked instead of crashing the process.
type Group struct {
	size uint
	g    *errgroup.Group
	ctx  context.Context
}

// NewGroup creates a group of size workers bound to ctx.
func NewGroup(ctx context.Context, size uint) (*Group, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Group{size: size, g: g, ctx: gctx}, nil
}

// Size returns the number of workers.
func (p *Group) Size() uint { return p.size }

// Start launches size copies of loop. It must be called once.
func (p *Group) Start(loop Loop) {
	for i := 0; i < int(p.size); i++ {
		id := i
		p.g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrWorkerPanicked, id, r)
				}
			}()
			return loop(p.ctx, id)
		})
	}
}

// Wait blocks until every worker returned and reports the first error.
func (p *Group) Wait() error { return p.g.Wait() }
