package utils

import (
	"errors"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

var ErrPoolClosed = errors.New("worker pool closed")

type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of workers pulling tasks off a shared queue.
type WorkerPool struct {
	n     int      // number of workers
	tasks chan any // task connection pool
}

func NewWorkerPool(size uint) *WorkerPool {
	return &WorkerPool{
		n:     max(int(size), 1),
		tasks: make(chan any, TASK_CHAN_SIZE),
	}
}

// Setup starts the workers under t. Workers stop when t is dying. A worker
// returning an error kills the tomb.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	for id := 0; id < pool.n; id++ {
		t.Go(func() error {
			return pool.worker(t, id, work)
		})
	}
}

// AddTask queues a task, blocking while the queue is full. It fails once the
// tomb is dying.
func (pool *WorkerPool) AddTask(t *tomb.Tomb, task any) error {
	if !t.Alive() {
		return ErrPoolClosed
	}
	select {
	case pool.tasks <- task:
		return nil
	case <-t.Dying():
		return ErrPoolClosed
	}
}

// Workers wait on tasks in the task connection pool and action them.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
