// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

// Package tasks implements the six background workers spec.md §4.8
// describes, each wired to a shared cancellation: node-membership
// refresh/check/cleanup, change-feed GC, index compaction, and key
// eviction. Grounded on teacher_ref/turbo/snapshotsync/snapshotsync.go's
// WaitForDownloader, which runs the same "tick or ctx.Done()" select loop
// against a *time.Ticker, and on golang.org/x/sync/errgroup for
// coordinated shutdown, the way internal/exec's Fetch operator already
// uses it for concurrent fan-out.
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/kv"
)

// Config holds every interval and dependency the six workers need. Zero
// durations fall back to the defaults below.
type Config struct {
	Backend kv.Backend
	Catalog *catalog.Catalog
	Logger  *zap.Logger
	NodeID  string

	// HeartbeatInterval is R, the node-membership refresh period.
	HeartbeatInterval time.Duration
	// MembershipDeadline is how long a node can go without a heartbeat
	// before the membership-check worker archives it.
	MembershipDeadline time.Duration
	// ArchiveGracePeriod is how long an archived node's record is kept
	// before the membership-cleanup worker removes it.
	ArchiveGracePeriod time.Duration
	// MembershipCheckInterval paces the check and cleanup workers.
	MembershipCheckInterval time.Duration

	// ChangeLogRetention is how old a change-feed entry must be before GC
	// removes it.
	ChangeLogRetention time.Duration
	// ChangeLogCheckInterval paces the change-feed GC worker.
	ChangeLogCheckInterval time.Duration

	// CompactionInterval paces the count-index compaction worker.
	CompactionInterval time.Duration
}

const (
	defaultHeartbeatInterval       = 5 * time.Second
	defaultMembershipDeadline      = 15 * time.Second
	defaultArchiveGracePeriod      = time.Hour
	defaultMembershipCheckInterval = 5 * time.Second
	defaultChangeLogRetention      = 24 * time.Hour
	defaultChangeLogCheckInterval  = time.Minute
	defaultCompactionInterval      = 10 * time.Second
)

func (c *Config) withDefaults() Config {
	out := *c
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = defaultHeartbeatInterval
	}
	if out.MembershipDeadline <= 0 {
		out.MembershipDeadline = defaultMembershipDeadline
	}
	if out.ArchiveGracePeriod <= 0 {
		out.ArchiveGracePeriod = defaultArchiveGracePeriod
	}
	if out.MembershipCheckInterval <= 0 {
		out.MembershipCheckInterval = defaultMembershipCheckInterval
	}
	if out.ChangeLogRetention <= 0 {
		out.ChangeLogRetention = defaultChangeLogRetention
	}
	if out.ChangeLogCheckInterval <= 0 {
		out.ChangeLogCheckInterval = defaultChangeLogCheckInterval
	}
	if out.CompactionInterval <= 0 {
		out.CompactionInterval = defaultCompactionInterval
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// nowFunc is overridden in tests so membership/eviction deadlines can be
// exercised deterministically instead of racing real wall-clock time.
var nowFunc = time.Now

// Runner owns the six background workers and the single cancellation they
// all share. Stop cancels that context and waits for every worker to exit,
// collecting the first non-context-cancelled error.
type Runner struct {
	cfg    Config
	cancel context.CancelFunc
	group  *errgroup.Group
	evict  *evictionQueue
}

// New constructs a Runner without starting any worker.
func New(cfg Config) *Runner {
	return &Runner{cfg: cfg.withDefaults()}
}

// Start launches all six workers. It must only be called once per Runner.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	r.group = g
	r.evict = newEvictionQueue()

	g.Go(func() error { return r.runMembershipRefresh(gctx) })
	g.Go(func() error { return r.runMembershipCheck(gctx) })
	g.Go(func() error { return r.runMembershipCleanup(gctx) })
	g.Go(func() error { return r.runChangeLogGC(gctx) })
	g.Go(func() error { return r.runIndexCompaction(gctx) })
	g.Go(func() error { return r.runKeyEviction(gctx) })
}

// ScheduleEviction registers key to be deleted at expiry, pre-empting the
// eviction worker's sleep if expiry is sooner than its current wakeup
// (spec.md §4.8 "listens on a channel for new expiries that may shorten
// the sleep").
func (r *Runner) ScheduleEviction(key []byte, expiry time.Time) {
	if r.evict == nil {
		return
	}
	r.evict.schedule(key, expiry)
}

// Stop cancels every worker and waits for them to exit. context.Canceled
// from the shared cancellation is not reported as a failure.
func (r *Runner) Stop() error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	err := r.group.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
