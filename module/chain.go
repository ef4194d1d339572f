package module

import (
	"context"
	"fmt"

	"github.com/MrEthical07/mfabridge/callback"
)

// Entry is one configured step of a chain.
type Entry struct {
	Module Module
	Flag   Flag
}

// Chain is a named, ordered list of entries. It is immutable once built and
// safe for concurrent use.
type Chain struct {
	name    string
	entries []Entry
}

// NewChain validates and copies entries.
func NewChain(name string, entries ...Entry) (*Chain, error) {
	for i, e := range entries {
		if e.Module == nil {
			return nil, fmt.Errorf("chain %q entry %d: nil module", name, i)
		}
		if !e.Flag.valid() {
			return nil, fmt.Errorf("chain %q entry %d: %w: %s", name, i, ErrInvalidFlag, e.Flag)
		}
	}
	return &Chain{name: name, entries: append([]Entry(nil), entries...)}, nil
}

func (c *Chain) Name() string { return c.name }

// Entries returns a copy of the configured entries.
func (c *Chain) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Login runs the chain against h. On success it returns the union of the
// principals of every module that succeeded. Commit hooks run on success and
// abort hooks on failure, in both cases only for modules that were invoked.
// When a commit fails, only that module and the ones after it are aborted.
func (c *Chain) Login(ctx context.Context, h callback.Handler) (PrincipalSet, error) {
	if len(c.entries) == 0 {
		return nil, ErrEmptyChain
	}

	var (
		principals  = NewPrincipalSet()
		requiredErr error
		otherErr    error
		hasRequired bool
		anySuccess  bool
		ran         int
	)

loop:
	for _, e := range c.entries {
		if err := ctx.Err(); err != nil {
			c.abort(ctx, h, ran)
			return nil, err
		}
		ps, err := e.Module.Login(ctx, h)
		ran++

		switch e.Flag {
		case Required, Requisite:
			hasRequired = true
			if err != nil {
				if requiredErr == nil {
					requiredErr = err
				}
				if e.Flag == Requisite {
					break loop
				}
				continue
			}
			principals.Merge(ps)
		case Sufficient:
			if err != nil {
				if otherErr == nil {
					otherErr = err
				}
				continue
			}
			principals.Merge(ps)
			anySuccess = true
			if requiredErr == nil {
				break loop
			}
		case Optional:
			if err != nil {
				if otherErr == nil {
					otherErr = err
				}
				continue
			}
			principals.Merge(ps)
			anySuccess = true
		}
	}

	failure := requiredErr
	if failure == nil && !hasRequired && !anySuccess {
		failure = otherErr
		if failure == nil {
			failure = ErrNoModuleSucceeded
		}
	}
	if failure != nil {
		c.abort(ctx, h, ran)
		return nil, failure
	}

	for i, e := range c.entries[:ran] {
		cm, ok := e.Module.(Committer)
		if !ok {
			continue
		}
		if err := cm.Commit(ctx, h); err != nil {
			// modules before i have committed and keep their state
			c.abortFrom(ctx, h, i, ran)
			return nil, err
		}
	}
	return principals, nil
}

func (c *Chain) abort(ctx context.Context, h callback.Handler, ran int) {
	c.abortFrom(ctx, h, 0, ran)
}

func (c *Chain) abortFrom(ctx context.Context, h callback.Handler, from, ran int) {
	for _, e := range c.entries[from:ran] {
		if ab, ok := e.Module.(Aborter); ok {
			ab.Abort(ctx, h)
		}
	}
}
