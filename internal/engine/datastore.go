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

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/compile"
	"github.com/corvidb/corvid/internal/kv"
	"github.com/corvidb/corvid/internal/kv/boltkv"
	"github.com/corvidb/corvid/internal/kv/memkv"
	"github.com/corvidb/corvid/internal/tasks"
)

// Datastore is the single entry point a wire transport or admin CLI
// builds on: one backend, one catalog, one running set of background
// workers. Query execution (Execute) lives alongside it in execute.go.
type Datastore struct {
	cfg     Config
	logger  *zap.Logger
	backend kv.Backend
	catalog *catalog.Catalog
	runner  *tasks.Runner
	funcs   *compile.FuncRegistry

	vecMu      sync.Mutex
	vecIndexes map[string]*vectorIndex
}

// Open builds every layer C2-C10 depend on and starts the background
// workers. path is the on-disk directory for BackendBolt; it is ignored
// for BackendMemory.
func Open(ctx context.Context, path string, opts ...Option) (*Datastore, error) {
	settings := openSettings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.logger == nil {
		settings.logger = zap.NewNop()
	}
	cfg := settings.cfg

	backend, err := openBackend(cfg.Backend, path)
	if err != nil {
		return nil, errors.Wrap(err, "engine: open backend")
	}

	cat, err := catalog.Open(cfg.RecordCacheCapacity)
	if err != nil {
		return nil, errors.Wrap(err, "engine: open catalog")
	}

	ds := &Datastore{
		cfg:        cfg,
		logger:     settings.logger,
		backend:    backend,
		catalog:    cat,
		funcs:      compile.NewFuncRegistry(nil),
		vecIndexes: make(map[string]*vectorIndex),
	}

	ds.runner = tasks.New(tasks.Config{
		Backend:                 backend,
		Catalog:                 cat,
		Logger:                  settings.logger,
		NodeID:                  cfg.NodeID,
		HeartbeatInterval:       cfg.HeartbeatInterval,
		MembershipDeadline:      cfg.MembershipDeadline,
		ArchiveGracePeriod:      cfg.ArchiveGracePeriod,
		MembershipCheckInterval: cfg.MembershipCheckInterval,
		ChangeLogRetention:      cfg.ChangeLogRetention,
		ChangeLogCheckInterval:  cfg.ChangeLogCheckInterval,
		CompactionInterval:      cfg.CompactionInterval,
	})
	ds.runner.Start(ctx)

	return ds, nil
}

func openBackend(b Backend, path string) (kv.Backend, error) {
	switch b {
	case BackendMemory, "":
		return memkv.New(), nil
	case BackendBolt:
		if path == "" {
			return nil, errors.New("engine: BackendBolt requires a non-empty path")
		}
		return boltkv.Open(path)
	default:
		return nil, fmt.Errorf("engine: unknown backend %q", b)
	}
}

// Close stops every background worker and closes the backend. Stopping
// the workers first lets any in-flight tick finish against a still-open
// backend instead of racing Close.
func (d *Datastore) Close() error {
	if err := d.runner.Stop(); err != nil {
		return errors.Wrap(err, "engine: stop background workers")
	}
	return d.backend.Close()
}

// ScheduleEviction exposes internal/tasks' key-eviction worker to callers
// that know a key's expiry up front (e.g. a session token, a cached
// computed field).
func (d *Datastore) ScheduleEviction(key []byte, expiry time.Time) {
	d.runner.ScheduleEviction(key, expiry)
}

// Catalog exposes the catalog for callers (tests, an admin surface) that
// need direct DDL access rather than going through Execute.
func (d *Datastore) Catalog() *catalog.Catalog { return d.catalog }

// Backend exposes the underlying kv.Backend for callers that need a raw
// transaction (tests, maintenance tooling).
func (d *Datastore) Backend() kv.Backend { return d.backend }
