package solver

// Worker pool for the accumulation phase. Flux gathering is embarrassingly
// parallel across row bands as long as no two workers share a delta buffer:
// band edges write into the neighboring row, so every worker owns a private
// full-length buffer and the master merges them before anything is applied.

type task struct {
	firstRow int
	lastRow  int
	deltaT   float32
}

type executor struct {
	workers int
	buffers [][]float32

	dispatchChan []chan task
	doneChan     chan struct{}
}

func newExecutor(workers, cells int) *executor {
	if workers < 1 {
		workers = 1
	}
	e := &executor{
		workers:      workers,
		buffers:      make([][]float32, workers),
		dispatchChan: make([]chan task, workers),
		doneChan:     make(chan struct{}, workers),
	}
	for i := 0; i < workers; i++ {
		e.buffers[i] = make([]float32, cells)
		e.dispatchChan[i] = make(chan task, 1)
	}
	return e
}

func (e *executor) stop() {
	for i := range e.dispatchChan {
		close(e.dispatchChan[i])
	}
}

func (e *executor) run(s *Simulation) {
	for i := 0; i < e.workers; i++ {
		go func(i int) {
			buf := e.buffers[i]
			for t := range e.dispatchChan[i] {
				for j := range buf {
					buf[j] = 0
				}
				s.accumulateBoundary(t.firstRow, t.lastRow, t.deltaT, buf)
				s.accumulateConduction(t.firstRow, t.lastRow, t.deltaT, buf)
				e.doneChan <- struct{}{}
			}
		}(i)
	}
}

// dispatch splits the rows into contiguous bands, waits for every worker and
// merges the private buffers into the shared per-cell delta accumulator.
// Called with the field mutex held, so nothing else observes the merge.
func (e *executor) dispatch(s *Simulation, deltaT float32) {
	rows := s.grid.Rows
	band := rows / e.workers
	remainder := rows % e.workers

	first := 0
	dispatched := 0
	for i := 0; i < e.workers && first < rows; i++ {
		last := first + band
		if i < remainder {
			last++
		}
		e.dispatchChan[i] <- task{firstRow: first, lastRow: last, deltaT: deltaT}
		first = last
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-e.doneChan
	}

	for i := 0; i < dispatched; i++ {
		buf := e.buffers[i]
		for j := range buf {
			s.deltaE[j] += buf[j]
		}
	}
}
