// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import "sort"

// DefaultPriority is the priority given to entries that do not declare one.
const DefaultPriority = 1

// Queue is a stable priority queue.
//
// Higher priorities come out first; entries sharing a priority come out in
// insertion order. The zero value is ready to use. Queue is not safe for
// concurrent use.
type Queue[T any] struct {
	entries []queueEntry[T]
}

type queueEntry[T any] struct {
	value    T
	priority int
}

// Push inserts value with the given priority.
func (q *Queue[T]) Push(value T, priority int) {
	// First position whose priority is strictly lower; inserting there keeps
	// FIFO order among equal priorities.
	i := sort.Search(len(q.entries), func(i int) bool {
		return q.entries[i].priority < priority
	})

	q.entries = append(q.entries, queueEntry[T]{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = queueEntry[T]{value: value, priority: priority}
}

// Pop removes and returns the highest-priority entry.
// The boolean is false if the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	if len(q.entries) == 0 {
		var zero T
		return zero, false
	}

	head := q.entries[0]
	q.entries = q.entries[1:]

	return head.value, true
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	return len(q.entries)
}

// Values returns the queued values in dequeue order without removing them.
func (q *Queue[T]) Values() []T {
	values := make([]T, len(q.entries))
	for i, e := range q.entries {
		values[i] = e.value
	}

	return values
}
