package lattice

import (
	"sync/atomic"
	"testing"
)

func TestSplitRows(t *testing.T) {
	tests := []struct {
		ny, count int
		want      []rowBand
	}{
		{10, 1, []rowBand{{0, 10}}},
		{10, 3, []rowBand{{0, 4}, {4, 7}, {7, 10}}},
		{2, 5, []rowBand{{0, 1}, {1, 2}}},
		{4, 0, []rowBand{{0, 4}}},
	}
	for _, tt := range tests {
		got := splitRows(tt.ny, tt.count)
		if len(got) != len(tt.want) {
			t.Fatalf("splitRows(%d, %d): expected %v, got %v", tt.ny, tt.count, tt.want, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitRows(%d, %d): expected %v, got %v", tt.ny, tt.count, tt.want, got)
			}
		}
	}
}

func TestWorkerPoolCoversEveryRow(t *testing.T) {
	pool := newWorkerPool(37, 4)
	defer pool.close()

	for round := 0; round < 50; round++ {
		var seen [37]int32
		pool.run(func(_ int, b rowBand) {
			for y := b.y0; y < b.y1; y++ {
				atomic.AddInt32(&seen[y], 1)
			}
		})
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("round %d: row %d visited %d times", round, y, n)
			}
		}
	}
}

func TestWorkerPoolRunsInlineAfterClose(t *testing.T) {
	pool := newWorkerPool(8, 2)
	pool.close()
	pool.close()
	var rows int32
	pool.run(func(_ int, b rowBand) {
		atomic.AddInt32(&rows, int32(b.y1-b.y0))
	})
	if rows != 8 {
		t.Errorf("expected 8 rows after close, got %d", rows)
	}
}
