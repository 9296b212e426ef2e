package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	// ErrPoolClosed is returned when work is submitted to a closed pool.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrUnknownTaskKind is returned for a task kind with no registered handler.
	ErrUnknownTaskKind = errors.New("unknown task kind")
)

// TaskKind identifies the handler a task is dispatched to. Kinds are a
// closed enum; the payload is plain data, never code.
type TaskKind int

const (
	// TaskLevenshteinBatch scores a batch of candidates by edit distance.
	TaskLevenshteinBatch TaskKind = iota
	// TaskScoreBatch runs a generic per-entity scoring batch.
	TaskScoreBatch
)

// String returns a human-readable task kind.
func (k TaskKind) String() string {
	switch k {
	case TaskLevenshteinBatch:
		return "levenshtein-batch"
	case TaskScoreBatch:
		return "score-batch"
	default:
		return fmt.Sprintf("task-kind-%d", int(k))
	}
}

// Task is one unit of work: a kind tag plus its payload.
type Task struct {
	Kind    TaskKind
	Payload any
}

// Result pairs a task's output with its error. Index is the task's position
// in the submitted batch.
type Result struct {
	Index   int
	Payload any
	Err     error
}

// Handler processes one task payload. Handlers must be safe for concurrent
// use; the pool runs them from multiple workers.
type Handler func(ctx context.Context, payload any) (any, error)

// Pool is a fixed-size worker pool. Construct it with New, register
// handlers per task kind, Open it, and Close it when done. The host
// application owns the lifecycle.
type Pool struct {
	size     int
	handlers map[TaskKind]Handler

	mu     sync.Mutex
	open   bool
	closed bool
	tasks  chan job
	wg     sync.WaitGroup
}

type job struct {
	ctx    context.Context
	task   Task
	index  int
	result chan<- Result
}

// New creates a pool with the given worker count. A non-positive size
// defaults to GOMAXPROCS.
func New(size int, handlers map[TaskKind]Handler) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	h := make(map[TaskKind]Handler, len(handlers))
	for k, fn := range handlers {
		h[k] = fn
	}
	return &Pool{size: size, handlers: h}
}

// Size returns the worker count.
func (p *Pool) Size() int { return p.size }

// Open starts the workers. Opening an already open or closed pool is an
// error.
func (p *Pool) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	if p.open {
		return errors.New("worker pool is already open")
	}
	p.tasks = make(chan job)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.open = true
	return nil
}

// Close stops accepting work and waits for in-flight tasks to finish.
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	wasOpen := p.open
	p.open = false
	p.mu.Unlock()

	if wasOpen {
		close(p.tasks)
		p.wg.Wait()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.tasks {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	res := Result{Index: j.index}
	defer func() { j.result <- res }()
	defer RecoverWithCallback(func(err error) {
		res.Err = err
	})

	if err := j.ctx.Err(); err != nil {
		res.Err = err
		return
	}
	handler, ok := p.handlers[j.task.Kind]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrUnknownTaskKind, j.task.Kind)
		return
	}
	res.Payload, res.Err = handler(j.ctx, j.task.Payload)
}

// Process dispatches a batch of tasks across the workers and blocks until
// every task has a result. Results are returned in task order. Context
// cancellation fails the not-yet-started tasks with the context error.
func (p *Pool) Process(ctx context.Context, tasks []Task) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	ch := p.tasks
	p.mu.Unlock()

	resultCh := make(chan Result, len(tasks))
	go func() {
		for i, t := range tasks {
			select {
			case ch <- job{ctx: ctx, task: t, index: i, result: resultCh}:
			case <-ctx.Done():
				resultCh <- Result{Index: i, Err: ctx.Err()}
			}
		}
	}()

	results := make([]Result, len(tasks))
	for range tasks {
		r := <-resultCh
		results[r.Index] = r
	}
	return results, nil
}
