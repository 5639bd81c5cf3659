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

// Package corerr collects the sentinel and structured error kinds raised by
// the core engine, grounded on the sentinel-error style of
// fenghaojiang-erigon-lib/kv/kv_interface.go (ErrAttemptToDeleteNonDeprecatedBucket,
// ErrUnknownBucket) combined with pkg/errors wrapping at layer boundaries.
package corerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Transaction errors (spec.md §7 "Transaction").
var (
	ErrTxFinished    = errors.New("corerr: transaction already finished")
	ErrTxReadonly    = errors.New("corerr: write attempted on a read-only transaction")
	ErrConditionNotMet = errors.New("corerr: compare-and-set condition not met")
	ErrTxFailure     = errors.New("corerr: transaction failed")
)

// Execution-flow sentinel (spec.md §7 "Execution flow").
// IgnoreErr is returned by document-processor steps to silently drop a row
// without aborting the enclosing statement; operators must test for it with
// errors.Is and never let it reach the caller.
var IgnoreErr = errors.New("corerr: row ignored")

// KeyAlreadyExistsError is returned by txn.Tx.Put when the key is already
// present; category names the key kind (record/index/graph/...) for the
// error message, per spec.md §4.2.
type KeyAlreadyExistsError struct {
	Category string
}

func (e *KeyAlreadyExistsError) Error() string {
	if e.Category == "" {
		return "corerr: key already exists"
	}
	return fmt.Sprintf("corerr: key already exists (%s)", e.Category)
}

// IndexExistsError signals a unique-index collision (spec.md §4.7, §8.b).
type IndexExistsError struct {
	Thing string // "table:id" of the row that failed to write
	Index string
	Value string // SQL-rendered conflicting value
}

func (e *IndexExistsError) Error() string {
	return fmt.Sprintf("corerr: value %s already exists in index %q (checked on %s)", e.Value, e.Index, e.Thing)
}

// TableCheckError signals a statement kind mismatch against a table's TYPE
// (spec.md §4.6 step 1).
type TableCheckError struct {
	Expected string
	Actual   string
}

func (e *TableCheckError) Error() string {
	return fmt.Sprintf("corerr: table type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// CoerceError signals a lossy or impossible kind coercion (spec.md §4.6
// step 4, §C5).
type CoerceError struct {
	From string
	To   string
	Hint string
}

func (e *CoerceError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("corerr: cannot coerce %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("corerr: cannot coerce %s to %s: %s", e.From, e.To, e.Hint)
}

// FieldAssertionError signals a failed field ASSERT expression.
type FieldAssertionError struct {
	Field string
	Expr  string
}

func (e *FieldAssertionError) Error() string {
	return fmt.Sprintf("corerr: assertion failed for field %s: %s", e.Field, e.Expr)
}

// ErrIDInvalid signals a record id that is not valid where it was supplied
// (such as a range id); ErrIDMismatch signals a supplied record id that
// disagrees with data.
var ErrIDInvalid = errors.New("corerr: record id is invalid in this position")
var ErrIDMismatch = errors.New("corerr: supplied id does not match data id/in/out")

// InvalidArgumentsError signals a builtin/custom function call with bad args.
type InvalidArgumentsError struct {
	Name    string
	Message string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("corerr: invalid arguments to %s: %s", e.Name, e.Message)
}

var (
	ErrArithmeticOverflow         = errors.New("corerr: arithmetic overflow")
	ErrArithmeticNegativeOverflow = errors.New("corerr: arithmetic negative overflow")
	ErrInvalidPatch               = errors.New("corerr: invalid patch document")
)

// PatchTestError signals a PATCH "test" op mismatch (spec.md §8.8).
type PatchTestError struct {
	Expected string
	Got      string
}

func (e *PatchTestError) Error() string {
	return fmt.Sprintf("corerr: patch test failed: expected %s, got %s", e.Expected, e.Got)
}

// FunctionPermissionsError signals a function blocked by capability/permission config.
type FunctionPermissionsError struct {
	Name string
}

func (e *FunctionPermissionsError) Error() string {
	return fmt.Sprintf("corerr: function %s is not permitted", e.Name)
}

// ParseError carries a source span and message from the lexer/parser.
type ParseError struct {
	Pos     int
	Line    int
	Col     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corerr: parse error at %d:%d: %s", e.Line, e.Col, e.Message)
}

var ErrUnsupportedFeature = errors.New("corerr: unsupported feature")

// KeyDecodeError is returned by the key codec when a sigil or category does
// not match what the decoder expected (spec.md §4.1).
type KeyDecodeError struct {
	Reason string
}

func (e *KeyDecodeError) Error() string {
	return fmt.Sprintf("corerr: key decode failed: %s", e.Reason)
}

// Wrap and Wrapf re-export pkg/errors wrapping so callers in this module
// don't need a second import for the common case.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

func Wrapf(err error, format string, args ...any) error { return errors.Wrapf(err, format, args...) }

// Is and As re-export errors.Is/errors.As (same semantics as stdlib, pkg/errors
// delegates to it) so callers only need this package.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
