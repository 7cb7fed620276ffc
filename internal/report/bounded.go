package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

type bounded struct {
	next    Generator
	timeout time.Duration
}

// Bounded gives every call at most d, returning even if next ignores
// its context.
func Bounded(next Generator, d time.Duration) Generator {
	if d <= 0 {
		return next
	}
	return &bounded{next: next, timeout: d}
}

func (b *bounded) Generate(ctx context.Context, s Snapshot) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("generator panicked: %v", r)}
			}
		}()
		text, err := b.next.Generate(ctx, s)
		ch <- result{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", domain.Generation(fmt.Errorf("timed out after %s: %w", b.timeout, ctx.Err()))
	}
}
