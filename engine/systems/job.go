package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/showroom/engine/core"
)

// JobTask describes a unit of work run on a JobSystem worker.
type JobTask struct {
	Name string
	// OnStart does the work. A non-nil error routes to OnFailure instead of OnComplete.
	OnStart    func() error
	OnComplete func()
	OnFailure  func(err error)
	// OnCompletionCallback always runs last, whatever the outcome.
	OnCompletionCallback func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu       sync.Mutex
	shutdown bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemShutdown = errors.New("job system already shut down")
var ErrJobPanicked = errors.New("job panicked")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if job.OnCompletionCallback != nil {
		defer job.OnCompletionCallback()
	}
	if err := js.runJob(job); err != nil {
		if job.OnFailure != nil {
			job.OnFailure(err)
		} else {
			core.LogError("job '%s' failed: %s", job.Name, err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

// runJob runs OnStart, turning a panic into an ErrJobPanicked failure so one
// broken job cannot take the worker down.
func (js *JobSystem) runJob(job JobTask) (err error) {
	if job.OnStart == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.OnStart()
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}

/**
 * @brief Shuts the job system down. Queued jobs still run; the call
 * returns once every worker has exited.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.shutdown {
		js.mu.Unlock()
		return nil
	}
	js.shutdown = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.shutdown {
		return ErrJobSystemShutdown
	}
	js.jobQueue <- jt
	return nil
}
