package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

func TestReadInteger(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, ok, err := New("42", symbols, blk).Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int())
}

func TestReadNegativeInteger(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, ok, err := New("-7", symbols, blk).Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-7), v.Int())
}

func TestReadSymbol(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, ok, err := New("foo-bar", symbols, blk).Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.TagSymbol, v.Tag())
	assert.Equal(t, "foo-bar", symbols.Name(v))
}

func TestReadNilAndTrue(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, _, err := New("nil", symbols, blk).Read()
	require.NoError(t, err)
	assert.Equal(t, value.Nil, v)

	v, _, err = New("t", symbols, blk).Read()
	require.NoError(t, err)
	assert.Equal(t, value.True, v)
}

func TestReadList(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, ok, err := New("(1 2 3)", symbols, blk).Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value.TagCons, v.Tag())

	var got []int64
	for cur := v; !cur.IsNil(); {
		c, err := blk.Cons(cur)
		require.NoError(t, err)
		got = append(got, c.Car.Int())
		cur = c.Cdr
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestReadQuoteSugar(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, _, err := New("'foo", symbols, blk).Read()
	require.NoError(t, err)
	c, err := blk.Cons(v)
	require.NoError(t, err)
	assert.Equal(t, "quote", symbols.Name(c.Car))
}

func TestReadString(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	v, _, err := New(`"hi\"there"`, symbols, blk).Read()
	require.NoError(t, err)
	s, err := blk.String(v)
	require.NoError(t, err)
	assert.Equal(t, `hi"there`, s.String())
}

func TestReadAllSkipsComments(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	forms, err := ReadAll("; a comment\n1 2 ; trailing\n3", symbols, blk)
	require.NoError(t, err)
	require.Len(t, forms, 3)
	assert.Equal(t, int64(1), forms[0].Int())
	assert.Equal(t, int64(3), forms[2].Int())
}

func TestUnterminatedListIsSyntaxError(t *testing.T) {
	symbols := symbol.New()
	blk := heap.NewBlock()
	_, _, err := New("(1 2", symbols, blk).Read()
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}
