package sim

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum work-item count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// workItem is a half-open index range for a worker to process.
type workItem struct {
	start, end int
	fn         func(start, end int)
}

// workerPool runs index-range passes across persistent worker goroutines.
// forEach is barrier-equivalent: it returns only once every chunk of the
// pass has completed, so successive passes never overlap.
type workerPool struct {
	numWorkers int

	workChan chan workItem
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool() *workerPool {
	return &workerPool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches the persistent workers.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workItem, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case item, ok := <-p.workChan:
			if !ok {
				return
			}
			item.fn(item.start, item.end)
			p.doneChan <- struct{}{}
		}
	}
}

// forEach runs fn over [0, n) in chunks. fn must only write state that is
// exclusively partitioned by index; the pool provides no other
// synchronization.
func (p *workerPool) forEach(n int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers <= 1 {
		fn(0, n)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workItem{start: start, end: end, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
