package conversation

import "sync"

// Queue runs tasks sequentially per key. Different keys run concurrently.
// A task enqueued from inside a running task of the same key runs after it.
type Queue struct {
	mu    sync.Mutex
	lanes map[string][]func()
	wg    sync.WaitGroup
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{lanes: make(map[string][]func())}
}

// Enqueue schedules task on the lane of key.
func (q *Queue) Enqueue(key string, task func()) {
	q.wg.Add(1)

	q.mu.Lock()
	pending, running := q.lanes[key]
	q.lanes[key] = append(pending, task)
	q.mu.Unlock()

	if !running {
		go q.drain(key)
	}
}

func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		pending := q.lanes[key]
		if len(pending) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		task := pending[0]
		q.lanes[key] = pending[1:]
		q.mu.Unlock()

		q.run(task)
	}
}

func (q *Queue) run(task func()) {
	defer q.wg.Done()
	task()
}

// Wait blocks until every lane is empty.
func (q *Queue) Wait() {
	q.wg.Wait()
}
