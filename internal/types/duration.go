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
	"strconv"
	"strings"

	"github.com/corvidb/corvid/internal/corerr"
)

// Duration is a (seconds, nanos) pair, grounded on
// original_source/crates/core/src/val/duration.rs. It does not reuse
// time.Duration because that type saturates at ~292 years; SurrealQL
// durations must represent centuries without overflowing (spec.md §3).
type Duration struct {
	Secs  uint64
	Nanos uint32
}

const (
	secsPerMinute = 60
	secsPerHour   = 60 * secsPerMinute
	secsPerDay    = 24 * secsPerHour
	secsPerWeek   = 7 * secsPerDay
	secsPerYear   = 365 * secsPerDay
	nanosPerMilli = 1_000_000
	nanosPerMicro = 1_000
)

var MaxDuration = Duration{Secs: math.MaxUint64, Nanos: 999_999_999}

func NewDuration(secs uint64, nanos uint32) Duration {
	extra := nanos / 1_000_000_000
	return Duration{Secs: secs + uint64(extra), Nanos: nanos % 1_000_000_000}
}

func (d Duration) Add(o Duration) Duration {
	secs := d.Secs + o.Secs
	nanos := d.Nanos + o.Nanos
	if secs < d.Secs { // overflow: saturate
		return MaxDuration
	}
	if nanos >= 1_000_000_000 {
		nanos -= 1_000_000_000
		if secs+1 < secs {
			return MaxDuration
		}
		secs++
	}
	return Duration{Secs: secs, Nanos: nanos}
}

func (d Duration) Sub(o Duration) Duration {
	if d.Secs < o.Secs || (d.Secs == o.Secs && d.Nanos < o.Nanos) {
		return Duration{} // saturate to zero, matching the Rust infallible Sub
	}
	secs := d.Secs - o.Secs
	nanos := d.Nanos
	if nanos < o.Nanos {
		secs--
		nanos += 1_000_000_000
	}
	nanos -= o.Nanos
	return Duration{Secs: secs, Nanos: nanos}
}

func (d Duration) TryAdd(o Duration) (Duration, error) {
	r := d.Add(o)
	if r == MaxDuration && (d != MaxDuration || o != Duration{}) && d.Secs+o.Secs < d.Secs {
		return Duration{}, corerr.ErrArithmeticOverflow
	}
	return r, nil
}

func (d Duration) TrySub(o Duration) (Duration, error) {
	if d.Secs < o.Secs || (d.Secs == o.Secs && d.Nanos < o.Nanos) {
		return Duration{}, corerr.ErrArithmeticNegativeOverflow
	}
	return d.Sub(o), nil
}

func (d Duration) Compare(o Duration) int {
	switch {
	case d.Secs != o.Secs:
		if d.Secs < o.Secs {
			return -1
		}
		return 1
	case d.Nanos != o.Nanos:
		if d.Nanos < o.Nanos {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// String renders the y/w/d/h/m/s/ms/µs/ns breakdown, matching
// original_source/crates/core/src/val/duration.rs's Display impl exactly
// (same component order, same omission of zero components).
func (d Duration) String() string {
	if d.Secs == 0 && d.Nanos == 0 {
		return "0ns"
	}
	secs := d.Secs
	nano := d.Nanos

	year := secs / secsPerYear
	secs %= secsPerYear
	week := secs / secsPerWeek
	secs %= secsPerWeek
	days := secs / secsPerDay
	secs %= secsPerDay
	hour := secs / secsPerHour
	secs %= secsPerHour
	mins := secs / secsPerMinute
	secs %= secsPerMinute
	msec := nano / nanosPerMilli
	nano %= nanosPerMilli
	usec := nano / nanosPerMicro
	nano %= nanosPerMicro

	var b strings.Builder
	writeIf := func(v uint64, suffix string) {
		if v > 0 {
			fmt.Fprintf(&b, "%d%s", v, suffix)
		}
	}
	writeIf(year, "y")
	writeIf(week, "w")
	writeIf(days, "d")
	writeIf(hour, "h")
	writeIf(mins, "m")
	writeIf(secs, "s")
	writeIf(uint64(msec), "ms")
	writeIf(uint64(usec), "µs")
	writeIf(uint64(nano), "ns")
	return b.String()
}

// ParseDuration parses the Display format above, the inverse required by
// spec.md §8 testable property 9 (parse(format(d)) == d).
func ParseDuration(s string) (Duration, error) {
	if s == "0ns" || s == "" {
		return Duration{}, nil
	}
	var secs uint64
	var nanos uint64
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return Duration{}, corerr.Wrapf(corerr.ErrUnsupportedFeature, "duration: expected digits at %d in %q", i, s)
		}
		numStr := s[start:i]
		unitStart := i
		// units are one or two ASCII/UTF-8 runes: y w d h m s ms µs ns
		if i < len(s) && s[i] == 'm' && i+1 < len(s) && s[i+1] == 's' {
			i += 2
		} else if i < len(s) && (strings.HasPrefix(s[i:], "µs") || strings.HasPrefix(s[i:], "us")) {
			i += len("µs")
			if strings.HasPrefix(s[unitStart:], "us") {
				i = unitStart + 2
			}
		} else if i < len(s) && s[i] == 'n' && i+1 < len(s) && s[i+1] == 's' {
			i += 2
		} else if i < len(s) {
			i++
		}
		unit := s[unitStart:i]
		n, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			return Duration{}, corerr.Wrap(err, "duration: bad number")
		}
		switch unit {
		case "y":
			secs += n * secsPerYear
		case "w":
			secs += n * secsPerWeek
		case "d":
			secs += n * secsPerDay
		case "h":
			secs += n * secsPerHour
		case "m":
			secs += n * secsPerMinute
		case "s":
			secs += n
		case "ms":
			nanos += n * nanosPerMilli
		case "µs", "us":
			nanos += n * nanosPerMicro
		case "ns":
			nanos += n
		default:
			return Duration{}, corerr.Wrapf(corerr.ErrUnsupportedFeature, "duration: unknown unit %q", unit)
		}
	}
	secs += nanos / 1_000_000_000
	nanos %= 1_000_000_000
	return Duration{Secs: secs, Nanos: uint32(nanos)}, nil
}
