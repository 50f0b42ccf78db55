package internal

// TaskQueue is a FIFO of pending tasks. It is not safe for concurrent use on
// its own, the Loop guards it.
type TaskQueue struct {
	tasks []func()
	head  int
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{
		tasks: make([]func(), 0, 16),
	}
}

func (q *TaskQueue) Enqueue(task func()) {
	q.tasks = append(q.tasks, task)
}

func (q *TaskQueue) Dequeue() (func(), bool) {
	if q.head >= len(q.tasks) {
		return nil, false
	}

	task := q.tasks[q.head]
	q.tasks[q.head] = nil
	q.head++

	// reclaim the consumed prefix once the queue is drained
	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
	}

	return task, true
}

func (q *TaskQueue) Len() int {
	return len(q.tasks) - q.head
}
