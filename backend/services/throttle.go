package services

import (
	"context"
	"time"
)

// LoginThrottle tracks failed logins per username. Allow reports whether
// another attempt is permitted and, if not, when one will be.
type LoginThrottle interface {
	Allow(ctx context.Context, username string) (bool, time.Time, error)
	Failed(ctx context.Context, username string) error
	Succeeded(ctx context.Context, username string) error
}

type openThrottle struct{}

func (openThrottle) Allow(context.Context, string) (bool, time.Time, error) {
	return true, time.Time{}, nil
}

func (openThrottle) Failed(context.Context, string) error    { return nil }
func (openThrottle) Succeeded(context.Context, string) error { return nil }
