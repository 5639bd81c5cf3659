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

package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectKinds(t *testing.T, src string) []Kind {
	t.Helper()
	l := New(src)
	var kinds []Kind
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func TestSelectStatementTokens(t *testing.T) {
	kinds := collectKinds(t, "SELECT name, age FROM person WHERE age > 18")
	require.Equal(t, []Kind{
		Keyword, Ident, Comma, Ident, Keyword, Ident, Keyword, Ident, Gt, Number,
	}, kinds)
}

func TestStringLiteralEscapes(t *testing.T) {
	l := New(`"hi\nthere"`)
	tok := l.Next()
	require.Equal(t, String, tok.Kind)
	require.Equal(t, "hi\nthere", tok.Text)
}

func TestParamToken(t *testing.T) {
	l := New("$name")
	tok := l.Next()
	require.Equal(t, Param, tok.Kind)
	require.Equal(t, "name", tok.Text)
}

func TestDurationVsNumberDotNumber(t *testing.T) {
	l := New("1h30m 3.14 5")
	require.Equal(t, Duration, l.Next().Kind)
	require.Equal(t, Number, l.Next().Kind)
	require.Equal(t, Number, l.Next().Kind)
}

func TestArrowsAndRanges(t *testing.T) {
	kinds := collectKinds(t, "a->b<-c<->d 1..5 1..=5")
	require.Equal(t, []Kind{
		Ident, ArrowOut, Ident, ArrowIn, Ident, ArrowBoth, Ident,
		Number, DotDot, Number, Number, DotDotEq, Number,
	}, kinds)
}

func TestRecordIDLexesAsIdentColonNumber(t *testing.T) {
	kinds := collectKinds(t, "person:123")
	require.Equal(t, []Kind{Ident, Colon, Number}, kinds)
}

func TestCommentSkipped(t *testing.T) {
	kinds := collectKinds(t, "SELECT * -- a comment\nFROM t")
	require.Equal(t, []Kind{Keyword, Star, Keyword, Ident}, kinds)
}

func TestDatetimeLiteral(t *testing.T) {
	l := New(`d"2024-01-01T00:00:00Z"`)
	tok := l.Next()
	require.Equal(t, Datetime, tok.Kind)
	require.Equal(t, "2024-01-01T00:00:00Z", tok.Text)
}
