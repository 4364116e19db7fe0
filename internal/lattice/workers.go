package lattice

import "sync"

// rowBand is a half-open range of rows [y0, y1) owned by one worker.
type rowBand struct{ y0, y1 int }

// bandJob is executed once per band for every dispatched phase.
type bandJob func(band int, rows rowBand)

// workerPool runs row-band jobs on persistent goroutines. A single band is
// run inline on the calling goroutine.
type workerPool struct {
	bands []rowBand

	mu      sync.Mutex
	cond    *sync.Cond
	job     bandJob
	step    int
	pending int
	closed  bool
	started bool
}

// splitRows cuts ny rows into count contiguous bands of near-equal height.
func splitRows(ny, count int) []rowBand {
	if count < 1 {
		count = 1
	}
	if count > ny {
		count = ny
	}
	bands := make([]rowBand, count)
	base, extra := ny/count, ny%count
	y := 0
	for i := range bands {
		h := base
		if i < extra {
			h++
		}
		bands[i] = rowBand{y0: y, y1: y + h}
		y += h
	}
	return bands
}

// newWorkerPool builds a pool and launches one goroutine per band.
func newWorkerPool(ny, workers int) *workerPool {
	p := &workerPool{bands: splitRows(ny, workers)}
	p.cond = sync.NewCond(&p.mu)
	if len(p.bands) > 1 {
		p.started = true
		for i := range p.bands {
			go p.workerLoop(i)
		}
	}
	return p
}

func (p *workerPool) workerLoop(index int) {
	lastStep := 0
	p.mu.Lock()
	for {
		for p.step == lastStep && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		lastStep = p.step
		job := p.job
		p.mu.Unlock()

		job(index, p.bands[index])

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
	}
}

// run executes job over every band and returns once all bands finished.
func (p *workerPool) run(job bandJob) {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		for i, b := range p.bands {
			job(i, b)
		}
		return
	}
	p.job = job
	p.pending = len(p.bands)
	p.step++
	p.cond.Broadcast()
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.job = nil
	p.mu.Unlock()
}

// close stops the worker goroutines. It is safe to call more than once.
func (p *workerPool) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}
