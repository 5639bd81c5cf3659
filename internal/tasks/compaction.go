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

package tasks

import (
	"context"

	"go.uber.org/zap"

	"github.com/corvidb/corvid/internal/catalog"
	"github.com/corvidb/corvid/internal/index"
	"github.com/corvidb/corvid/internal/txn"
)

// runIndexCompaction runs the count-index compactor across every count
// index in the catalog (spec.md §4.8 task 5), wiring
// internal/index.Compact into a background tick.
func (r *Runner) runIndexCompaction(ctx context.Context) error {
	return selectTick(ctx, r.cfg.CompactionInterval, func(ctx context.Context) error {
		tx, err := txn.Begin(ctx, r.cfg.Backend, true, txn.DropWarn, r.cfg.Logger)
		if err != nil {
			return err
		}
		if err := r.compactAllCountIndexes(ctx, tx); err != nil {
			tx.Cancel()
			return err
		}
		return tx.Commit()
	})
}

func (r *Runner) compactAllCountIndexes(ctx context.Context, tx *txn.Tx) error {
	nses, err := r.cfg.Catalog.Namespaces(ctx, tx)
	if err != nil {
		return err
	}
	for _, ns := range nses {
		dbs, err := r.cfg.Catalog.Databases(ctx, tx, ns.Name)
		if err != nil {
			return err
		}
		for _, db := range dbs {
			tbs, err := r.cfg.Catalog.Tables(ctx, tx, ns.Name, db.Name)
			if err != nil {
				return err
			}
			for _, tb := range tbs {
				if err := r.compactTableCountIndexes(ctx, tx, ns.Name, db.Name, tb.Name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Runner) compactTableCountIndexes(ctx context.Context, tx *txn.Tx, ns, db, tb string) error {
	ixs, err := r.cfg.Catalog.Indexes(ctx, tx, ns, db, tb)
	if err != nil {
		return err
	}
	for _, ix := range ixs {
		if ix.Kind != catalog.IndexCount {
			continue
		}
		total, err := index.Compact(ctx, tx, ns, db, tb, ix.Name)
		if err != nil {
			return err
		}
		r.cfg.Logger.Debug("compacted count index",
			zap.String("table", tb), zap.String("index", ix.Name), zap.Int64("total", total))
	}
	return nil
}
