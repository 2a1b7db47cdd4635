package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeque_zeroValue(t *testing.T) {
	var q Deque[int]
	assert.Equal(t, 0, q.Len())

	_, ok := q.PopFront()
	assert.False(t, ok)
	_, ok = q.Front()
	assert.False(t, ok)
	_, ok = q.Back()
	assert.False(t, ok)
	assert.Empty(t, q.AppendTo(nil, 0))
}

func TestDeque_fifoAcrossNodes(t *testing.T) {
	var q Deque[int]
	const n = nodeSize*3 + 7
	for i := 0; i < n; i++ {
		q.PushBack(i)
		back, ok := q.Back()
		require.True(t, ok)
		require.Equal(t, i, back)
	}
	require.Equal(t, n, q.Len())

	for i := 0; i < n; i++ {
		front, ok := q.Front()
		require.True(t, ok)
		require.Equal(t, i, front)

		v, ok := q.PopFront()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
	_, ok := q.PopFront()
	assert.False(t, ok)
}

func TestDeque_interleaved(t *testing.T) {
	var q Deque[int]
	next, want := 0, 0
	for round := 0; round < 50; round++ {
		for i := 0; i < round%(nodeSize+5)+1; i++ {
			q.PushBack(next)
			next++
		}
		for i := 0; i < round%7+1; i++ {
			v, ok := q.PopFront()
			if !ok {
				break
			}
			require.Equal(t, want, v)
			want++
		}
		require.Equal(t, next-want, q.Len())
	}
}

func TestDeque_AppendTo(t *testing.T) {
	var q Deque[int]
	for i := 0; i < nodeSize*2+3; i++ {
		q.PushBack(i)
	}
	for i := 0; i < 10; i++ {
		q.PopFront()
	}
	// elements are now 10..nodeSize*2+2

	all := q.AppendTo(nil, 0)
	require.Len(t, all, q.Len())
	for i, v := range all {
		require.Equal(t, i+10, v)
	}

	tail := q.AppendTo([]int{-1}, nodeSize)
	require.Equal(t, -1, tail[0])
	require.Len(t, tail, 1+q.Len()-nodeSize)
	assert.Equal(t, nodeSize+10, tail[1])
	assert.Equal(t, nodeSize*2+2, tail[len(tail)-1])

	assert.Empty(t, q.AppendTo(nil, q.Len()))
	assert.Equal(t, all, q.AppendTo(nil, -5))
}

func TestDeque_popClearsSlots(t *testing.T) {
	var q Deque[*int]
	v := new(int)
	q.PushBack(v)
	q.PushBack(v)
	q.PopFront()
	assert.Nil(t, q.head.items[0])
}
