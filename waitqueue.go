// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// waitQueueChunk is the number of slots added each time a waitQueue grows.
const waitQueueChunk = 16

// waiter identifies one blocked operation: slot i of group g.
type waiter struct {
	g *group
	i int
}

// waitQueue holds the blocked operations of one direction of one channel.
//
// Order is not preserved: remove swaps the last element into the hole.
// Matching is random anyway, see tryTakeRandom.
type waitQueue struct {
	items []waiter
}

func (q *waitQueue) len() int {
	return len(q.items)
}

func (q *waitQueue) push(w waiter) {
	if len(q.items) == cap(q.items) {
		grown := make([]waiter, len(q.items), cap(q.items)+waitQueueChunk)
		copy(grown, q.items)
		q.items = grown
	}
	q.items = append(q.items, w)
}

// remove deletes w from the queue. It reports false if w is not queued.
func (q *waitQueue) remove(w waiter) bool {
	last := len(q.items) - 1
	for i := range q.items {
		if q.items[i] != w {
			continue
		}
		q.items[i] = q.items[last]
		q.items[last] = waiter{}
		q.items = q.items[:last]
		return true
	}
	return false
}

// tryTakeRandom returns a uniformly chosen waiter without removing it.
func (q *waitQueue) tryTakeRandom(r Rand) (waiter, bool) {
	switch len(q.items) {
	case 0:
		return waiter{}, false
	case 1:
		return q.items[0], true
	}
	return q.items[r.IntN(len(q.items))], true
}

// release drops the backing storage. The queue must be empty.
func (q *waitQueue) release() {
	q.items = nil
}
