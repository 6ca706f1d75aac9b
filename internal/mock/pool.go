package mock

import "sync"

// Pool executes recorded reactions on a fixed set of worker goroutines, off
// the thread that delivered the triggering event.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewPool starts size workers. Size must be positive.
func NewPool(size int) *Pool {
	p := &Pool{tasks: make(chan func(), size*4)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	return p
}

// Submit enqueues a task. Blocks when the queue is full; panics after Close.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for in-flight ones to drain.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}
