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
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/corvidb/corvid/internal/corerr"
	"github.com/corvidb/corvid/internal/keycodec"
	"github.com/corvidb/corvid/internal/txn"
)

// nodeState is the value stored at keycodec.MembershipKey(nodeID): a
// heartbeat timestamp plus an archived flag and the instant it was
// archived at. This is liveness bookkeeping for the single node this
// process runs, not a raft/consensus membership protocol (spec.md
// explicitly excludes multi-node replication from scope; §4.8 still names
// these three workers as internal housekeeping).
type nodeState struct {
	LastHeartbeat time.Time
	Archived      bool
	ArchivedAt    time.Time
}

const nodeStateEncodedSize = 1 + 8 + 1 + 8

func encodeNodeState(s nodeState) []byte {
	buf := make([]byte, nodeStateEncodedSize)
	buf[0] = 1
	binary.BigEndian.PutUint64(buf[1:9], uint64(s.LastHeartbeat.UnixNano()))
	if s.Archived {
		buf[9] = 1
	}
	binary.BigEndian.PutUint64(buf[10:18], uint64(s.ArchivedAt.UnixNano()))
	return buf
}

func decodeNodeState(data []byte) (nodeState, error) {
	if len(data) != nodeStateEncodedSize {
		return nodeState{}, &corerr.KeyDecodeError{Reason: "node membership record has wrong width"}
	}
	var s nodeState
	s.LastHeartbeat = time.Unix(0, int64(binary.BigEndian.Uint64(data[1:9])))
	s.Archived = data[9] == 1
	s.ArchivedAt = time.Unix(0, int64(binary.BigEndian.Uint64(data[10:18])))
	return s, nil
}

func selectTick(ctx context.Context, interval time.Duration, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

// runMembershipRefresh updates this node's heartbeat key at interval R
// (spec.md §4.8 task 1).
func (r *Runner) runMembershipRefresh(ctx context.Context) error {
	return selectTick(ctx, r.cfg.HeartbeatInterval, func(ctx context.Context) error {
		tx, err := txn.Begin(ctx, r.cfg.Backend, true, txn.DropWarn, r.cfg.Logger)
		if err != nil {
			return err
		}
		state := nodeState{LastHeartbeat: nowFunc()}
		if err := tx.Set(keycodec.MembershipKey(r.cfg.NodeID), encodeNodeState(state)); err != nil {
			tx.Cancel()
			return err
		}
		return tx.Commit()
	})
}

// runMembershipCheck scans membership keys and archives nodes past their
// deadline (spec.md §4.8 task 2).
func (r *Runner) runMembershipCheck(ctx context.Context) error {
	return selectTick(ctx, r.cfg.MembershipCheckInterval, func(ctx context.Context) error {
		tx, err := txn.Begin(ctx, r.cfg.Backend, true, txn.DropWarn, r.cfg.Logger)
		if err != nil {
			return err
		}
		if err := r.archiveExpiredNodes(ctx, tx); err != nil {
			tx.Cancel()
			return err
		}
		return tx.Commit()
	})
}

func (r *Runner) archiveExpiredNodes(ctx context.Context, tx *txn.Tx) error {
	prefix := keycodec.MembershipPrefix()
	end := keycodec.Successor(prefix)
	deadline := nowFunc().Add(-r.cfg.MembershipDeadline)
	start := prefix
	for {
		pairs, err := tx.Scan(ctx, start, end, 256)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		for _, p := range pairs {
			state, err := decodeNodeState(p.Val)
			if err != nil {
				return err
			}
			if !state.Archived && state.LastHeartbeat.Before(deadline) {
				state.Archived = true
				state.ArchivedAt = nowFunc()
				if err := tx.Set(p.Key, encodeNodeState(state)); err != nil {
					return err
				}
				r.cfg.Logger.Warn("archived node past heartbeat deadline", zap.ByteString("key", p.Key))
			}
		}
		start = keycodec.Successor(pairs[len(pairs)-1].Key)
	}
}

// runMembershipCleanup removes archived nodes past the grace period
// (spec.md §4.8 task 3).
func (r *Runner) runMembershipCleanup(ctx context.Context) error {
	return selectTick(ctx, r.cfg.MembershipCheckInterval, func(ctx context.Context) error {
		tx, err := txn.Begin(ctx, r.cfg.Backend, true, txn.DropWarn, r.cfg.Logger)
		if err != nil {
			return err
		}
		if err := r.removeStaleArchivedNodes(ctx, tx); err != nil {
			tx.Cancel()
			return err
		}
		return tx.Commit()
	})
}

func (r *Runner) removeStaleArchivedNodes(ctx context.Context, tx *txn.Tx) error {
	prefix := keycodec.MembershipPrefix()
	end := keycodec.Successor(prefix)
	graceDeadline := nowFunc().Add(-r.cfg.ArchiveGracePeriod)
	start := prefix
	for {
		pairs, err := tx.Scan(ctx, start, end, 256)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		next := keycodec.Successor(pairs[len(pairs)-1].Key)
		for _, p := range pairs {
			state, err := decodeNodeState(p.Val)
			if err != nil {
				return err
			}
			if state.Archived && state.ArchivedAt.Before(graceDeadline) {
				if err := tx.Del(p.Key); err != nil {
					return err
				}
				r.cfg.Logger.Info("removed archived node past grace period", zap.ByteString("key", p.Key))
			}
		}
		start = next
	}
}
