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
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// NumberKind discriminates the three Number variants (spec.md §3 "Value").
type NumberKind uint8

const (
	NumInt NumberKind = iota
	NumFloat
	NumDecimal
)

// Number is the Int/Float/Decimal sum described in spec.md §3. Only one of
// i/f/d is meaningful, selected by kind.
type Number struct {
	kind NumberKind
	i    int64
	f    float64
	d    decimal.Decimal
}

func NewInt(v int64) Number      { return Number{kind: NumInt, i: v} }
func NewFloat(v float64) Number  { return Number{kind: NumFloat, f: v} }
func NewDecimal(v decimal.Decimal) Number { return Number{kind: NumDecimal, d: v} }

func (n Number) NumberKind() NumberKind { return n.kind }

func (n Number) Int() (int64, bool) {
	if n.kind != NumInt {
		return 0, false
	}
	return n.i, true
}

func (n Number) Float() (float64, bool) {
	if n.kind != NumFloat {
		return 0, false
	}
	return n.f, true
}

func (n Number) Decimal() (decimal.Decimal, bool) {
	if n.kind != NumDecimal {
		return decimal.Decimal{}, false
	}
	return n.d, true
}

// AsDecimal widens any Number variant to a decimal.Decimal, used for
// cross-kind comparison and arithmetic that must not lose precision for the
// Int/Decimal pair (see Compare for the Float relative-tolerance rule this
// resolves, spec.md §9 open question (i)).
func (n Number) AsDecimal() decimal.Decimal {
	switch n.kind {
	case NumInt:
		return decimal.NewFromInt(n.i)
	case NumFloat:
		return decimal.NewFromFloat(n.f)
	case NumDecimal:
		return n.d
	default:
		return decimal.Zero
	}
}

func (n Number) AsFloat() float64 {
	switch n.kind {
	case NumInt:
		return float64(n.i)
	case NumFloat:
		return n.f
	case NumDecimal:
		f, _ := n.d.Float64()
		return f
	default:
		return 0
	}
}

func (n Number) String() string {
	switch n.kind {
	case NumInt:
		return fmt.Sprintf("%d", n.i)
	case NumFloat:
		return fmt.Sprintf("%g", n.f)
	case NumDecimal:
		return n.d.String() + "dec"
	default:
		return "0"
	}
}

// decimalRelTolerance is the fudge factor used when one side of a
// comparison came from a Float: float64 cannot exactly represent most
// decimal literals, so an exact decimal.Cmp would make `1.1 == 1.1dec`
// false. Resolves spec.md §9 open question (i); documented in
// SPEC_FULL.md §6.1.
const decimalRelTolerance = 1e-9

// Compare orders Numbers by numeric value regardless of variant. NaN
// compares equal to itself and, when compared against a non-NaN Float,
// sorts after it (greatest); two distinct-bit-pattern NaNs order by raw
// bit pattern so the overall order is total, per spec.md §3.
func (n Number) Compare(o Number) int {
	nNaN := n.kind == NumFloat && math.IsNaN(n.f)
	oNaN := o.kind == NumFloat && math.IsNaN(o.f)
	switch {
	case nNaN && oNaN:
		nb, ob := math.Float64bits(n.f), math.Float64bits(o.f)
		switch {
		case nb < ob:
			return -1
		case nb > ob:
			return 1
		default:
			return 0
		}
	case nNaN:
		return 1
	case oNaN:
		return -1
	}

	if n.kind == o.kind {
		switch n.kind {
		case NumInt:
			switch {
			case n.i < o.i:
				return -1
			case n.i > o.i:
				return 1
			default:
				return 0
			}
		case NumFloat:
			switch {
			case n.f < o.f:
				return -1
			case n.f > o.f:
				return 1
			default:
				return 0
			}
		case NumDecimal:
			return n.d.Cmp(o.d)
		}
	}

	// Cross-kind: widen to decimal, but if either side is a Float, allow a
	// small relative tolerance instead of an exact decimal comparison.
	nd, od := n.AsDecimal(), o.AsDecimal()
	if n.kind == NumFloat || o.kind == NumFloat {
		diff := nd.Sub(od).Abs()
		scale := nd.Abs()
		if od.Abs().GreaterThan(scale) {
			scale = od.Abs()
		}
		if scale.IsZero() {
			if diff.IsZero() {
				return 0
			}
		} else if diff.Div(scale).LessThan(decimal.NewFromFloat(decimalRelTolerance)) {
			return 0
		}
	}
	return nd.Cmp(od)
}

func (n Number) Equal(o Number) bool { return n.Compare(o) == 0 }

// Add saturates on overflow for Int, following erigon-lib/common/math's
// SafeAdd-style overflow detection (erigon-lib/common/math/integer.go).
func (n Number) Add(o Number) Number {
	if n.kind == NumInt && o.kind == NumInt {
		sum := n.i + o.i
		if (o.i > 0 && sum < n.i) || (o.i < 0 && sum > n.i) {
			if o.i > 0 {
				return NewInt(math.MaxInt64)
			}
			return NewInt(math.MinInt64)
		}
		return NewInt(sum)
	}
	if n.kind == NumDecimal || o.kind == NumDecimal {
		return NewDecimal(n.AsDecimal().Add(o.AsDecimal()))
	}
	return NewFloat(n.AsFloat() + o.AsFloat())
}
