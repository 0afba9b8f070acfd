package parser

import (
	"container/heap"
	"context"
	"errors"
	"io"
)

// MergedSource combines several RecordSources into one stream ordered by
// timestamp (oldest first). Exports of the same chat taken at different
// times, or split across files, come out as one timeline.
//
// Records with equal timestamps keep their per-source order, and sources
// listed earlier win ties, so continuation lines stay behind their header.
type MergedSource struct {
	sources []RecordSource
	heap    *recordHeap
	started bool
	seq     int
}

// NewMergedSource creates a RecordSource that merges sources by timestamp.
func NewMergedSource(sources ...RecordSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &recordHeap{},
	}
}

// Next returns the next record in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*Record, error) {
	if !m.started {
		m.started = true
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	if err := m.push(ctx, item.sourceIdx); err != nil {
		return nil, err
	}

	return item.record, nil
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)
	for i := range m.sources {
		if err := m.push(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// push reads the next record of source idx into the heap.
func (m *MergedSource) push(ctx context.Context, idx int) error {
	rec, err := m.sources[idx].Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	m.seq++
	heap.Push(m.heap, &heapItem{record: rec, sourceIdx: idx, seq: m.seq})
	return nil
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type heapItem struct {
	record    *Record
	sourceIdx int
	seq       int
}

type recordHeap []*heapItem

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.record.Timestamp.Equal(b.record.Timestamp) {
		return a.record.Timestamp.Before(b.record.Timestamp)
	}
	if a.sourceIdx != b.sourceIdx {
		return a.sourceIdx < b.sourceIdx
	}
	return a.seq < b.seq
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
