package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    20 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewDisabledWithoutAddr(t *testing.T) {
	opts := validOptions()
	opts.Addr = ""
	if _, err := New(context.Background(), opts, logger.NewNop()); !errors.Is(err, ErrDisabled) {
		t.Errorf("New() error = %v, want ErrDisabled", err)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *ConnectOptions)
	}{
		{name: "connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{name: "retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{name: "max wait", mutate: func(o *ConnectOptions) { o.MaxWait = -time.Second }},
		{name: "ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{name: "pool size", mutate: func(o *ConnectOptions) { o.PoolSize = -1 }},
		{name: "warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			if _, err := New(context.Background(), opts, logger.NewNop()); err == nil {
				t.Error("New() error = nil, want validation failure")
			}
		})
	}
}

func TestNewGivesUpOnUnreachableServer(t *testing.T) {
	start := time.Now()
	if _, err := New(context.Background(), validOptions(), logger.NewNop()); err == nil {
		t.Fatal("New() error = nil for an unreachable address")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("New() took %v, want it bounded by ConnectTimeout", elapsed)
	}
}

func TestNewStopsOnCancel(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	if _, err := New(ctx, opts, logger.NewNop()); !errors.Is(err, context.Canceled) {
		t.Errorf("New() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("New() took %v after cancel", elapsed)
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		name  string
		wait  time.Duration
		limit time.Duration
		want  time.Duration
	}{
		{name: "doubles", wait: time.Second, limit: 10 * time.Second, want: 2 * time.Second},
		{name: "capped", wait: 6 * time.Second, limit: 10 * time.Second, want: 10 * time.Second},
		{name: "already at cap", wait: 10 * time.Second, limit: 10 * time.Second, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextWait(tt.wait, tt.limit); got != tt.want {
				t.Errorf("nextWait(%v, %v) = %v, want %v", tt.wait, tt.limit, got, tt.want)
			}
		})
	}
}
