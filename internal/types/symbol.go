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

package types

import (
	"hash/maphash"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// internBudget and internMaxLen mirror the original interner's 4096-entry,
// length<32 policy (original_source/crates/core/src/val/symbol.rs): strings
// at or above 32 bytes are considered unlikely to repeat across documents
// and bypass interning entirely.
const (
	internBudget = 4096
	internMaxLen = 32
)

// Go has no thread-local storage for user code (goroutines aren't OS
// threads), so the per-thread LruCache<u64, Arc<str>> from the original is
// approximated with a sync.Pool of caches: each Intern call borrows one,
// uses it, and returns it, giving the same "one small cache per concurrent
// caller" shape without pretending Go has thread locals.
var internerPool = sync.Pool{
	New: func() any {
		c, err := lru.New[uint64, *Symbol](internBudget)
		if err != nil {
			panic(err) // internBudget is a positive constant; New only errors on size<=0
		}
		return c
	},
}

var seed = maphash.MakeSeed()

// Symbol is an interned string, used for object keys and idiom segments.
// Equality checks pointer identity first (cheap for the common
// same-interner-hit case), falling back to content comparison, matching
// original_source/crates/core/src/val/symbol.rs.
type Symbol struct {
	s string
}

// NewSymbol interns s through the pooled cache and returns the canonical
// Symbol for its contents.
func NewSymbol(s string) *Symbol {
	if len(s) >= internMaxLen {
		return &Symbol{s: s}
	}
	var h maphash.Hash
	h.SetSeed(seed)
	_, _ = h.WriteString(s)
	key := h.Sum64()

	cAny := internerPool.Get()
	cache := cAny.(*lru.Cache[uint64, *Symbol])
	defer internerPool.Put(cache)

	if sym, ok := cache.Get(key); ok && sym.s == s {
		return sym
	}
	sym := &Symbol{s: s}
	cache.Add(key, sym)
	return sym
}

func (s *Symbol) String() string { return s.s }

// Equal compares by pointer identity first, then by content.
func (s *Symbol) Equal(o *Symbol) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.s == o.s
}

func (s *Symbol) Compare(o *Symbol) int {
	if s == o {
		return 0
	}
	switch {
	case s.s < o.s:
		return -1
	case s.s > o.s:
		return 1
	default:
		return 0
	}
}
