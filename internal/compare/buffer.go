package compare

import "github.com/seanbenoit06/dancetrainer/internal/detector"

// bufferEntry pairs a live pose with its flattened coordinates so the
// motion scorer never re-derives them.
type bufferEntry struct {
	pose   detector.Pose
	coords []float64
}

// Buffer is a bounded FIFO holding the most recent live poses. It is
// backed by a fixed ring, so insertion and eviction are O(1). Only the
// engine's update path mutates it.
type Buffer struct {
	entries []bufferEntry
	head    int
	count   int
}

// NewBuffer creates a Buffer holding at most capacity poses.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{entries: make([]bufferEntry, capacity)}
}

// Push appends a pose, evicting the oldest entry when full.
func (b *Buffer) Push(pose detector.Pose, coords []float64) {
	tail := (b.head + b.count) % len(b.entries)
	b.entries[tail] = bufferEntry{pose: pose, coords: coords}
	if b.count < len(b.entries) {
		b.count++
	} else {
		b.head = (b.head + 1) % len(b.entries)
	}
}

// Len returns the number of buffered poses.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Reset discards all buffered poses.
func (b *Buffer) Reset() {
	b.head = 0
	b.count = 0
}

// Pose returns the buffered pose at position i, oldest first.
func (b *Buffer) Pose(i int) detector.Pose {
	return b.entries[(b.head+i)%len(b.entries)].pose
}

// Poses returns every buffered pose, oldest first.
func (b *Buffer) Poses() []detector.Pose {
	out := make([]detector.Pose, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.Pose(i)
	}
	return out
}

// CoordSeries returns the flattened coordinates of every buffered pose,
// oldest first, for motion alignment.
func (b *Buffer) CoordSeries() [][]float64 {
	out := make([][]float64, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)].coords
	}
	return out
}

// Recap resizes the buffer to the given capacity, retaining the newest
// entries that fit. A no-op when the capacity is unchanged.
func (b *Buffer) Recap(capacity int) {
	if capacity < 1 || capacity == len(b.entries) {
		return
	}

	keep := b.count
	if keep > capacity {
		keep = capacity
	}

	fresh := make([]bufferEntry, capacity)
	for i := 0; i < keep; i++ {
		src := (b.head + b.count - keep + i) % len(b.entries)
		fresh[i] = b.entries[src]
	}

	b.entries = fresh
	b.head = 0
	b.count = keep
}
