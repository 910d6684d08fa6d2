package search

import (
	"container/heap"

	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// frontierItem is a discovered node waiting to be expanded.
type frontierItem struct {
	pos grid.Position
	g   int
	h   float64
	f   float64
	seq uint64
}

// frontier is a min-heap over f, then h, then insertion order.
type frontier []*frontierItem

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (q frontier) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *frontier) Push(x any) {
	*q = append(*q, x.(*frontierItem))
}

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

func (q *frontier) push(item *frontierItem) { heap.Push(q, item) }

func (q *frontier) pop() *frontierItem { return heap.Pop(q).(*frontierItem) }
