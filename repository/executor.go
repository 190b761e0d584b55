package repository

import (
	"log"
	"main/utils"
	"sync"
)

// writeQueue serializes every mutation for one repository through a
// single worker goroutine. Tasks run in submission order and cannot be
// cancelled once enqueued. A panicking task is logged and dropped; the
// worker keeps draining the queue.
type writeQueue struct {
	name      string
	tasks     chan func()
	closeOnce sync.Once
}

const writeQueueCapacity = 256

func newWriteQueue(name string) *writeQueue {
	q := &writeQueue{
		name:  name,
		tasks: make(chan func(), writeQueueCapacity),
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	for task := range q.tasks {
		q.runTask(task)
		utils.WriteQueueDepth.WithLabelValues(q.name).Set(float64(len(q.tasks)))
	}
}

func (q *writeQueue) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Write task on %s queue panicked: %v", q.name, r)
			utils.TrackError("database", "write_task_panic")
		}
	}()
	task()
}

// Submit enqueues a task and returns immediately
func (q *writeQueue) Submit(task func()) {
	q.tasks <- task
	utils.WriteQueueDepth.WithLabelValues(q.name).Set(float64(len(q.tasks)))
}

// Do enqueues a task and waits for it to finish. The task still runs on
// the worker, after everything submitted before it.
func (q *writeQueue) Do(task func()) {
	done := make(chan struct{})
	q.Submit(func() {
		defer close(done)
		task()
	})
	<-done
}

// Flush blocks until every task submitted before the call has run
func (q *writeQueue) Flush() {
	q.Do(func() {})
}

// Close stops the worker once the queue drains
func (q *writeQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.tasks)
	})
}

// callbackDispatcher delivers completion callbacks away from the write
// worker, so a slow or panicking callback can never stall the queue.
type callbackDispatcher struct {
	jobs      chan func()
	closeOnce sync.Once
}

func newCallbackDispatcher() *callbackDispatcher {
	d := &callbackDispatcher{jobs: make(chan func(), writeQueueCapacity)}
	go d.run()
	return d
}

func (d *callbackDispatcher) run() {
	for job := range d.jobs {
		d.runJob(job)
	}
}

func (d *callbackDispatcher) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Insert callback panicked: %v", r)
		}
	}()
	job()
}

func (d *callbackDispatcher) Dispatch(job func()) {
	d.jobs <- job
}

func (d *callbackDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
}
