package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/argo-mcp/argo/internal/logger"
)

// ErrQueueFull is returned by Submit when Config.MaxQueueDepth is set and the
// queue is saturated.
var ErrQueueFull = fmt.Errorf("executor: queue is full")

// Persistence is the write-through mirror collaborator. The
// Executor remains correct even when these calls fail; failures are
// logged and otherwise ignored.
type Persistence interface {
	Save(ctx context.Context, task *TaskExecution) error
	FindByID(ctx context.Context, taskID string) (*TaskExecution, error)
	FindTimedOutTasks(ctx context.Context, threshold time.Duration) ([]*TaskExecution, error)
	FindForCleanup(ctx context.Context, cutoff time.Time) ([]*TaskExecution, error)
	CountByStatus(ctx context.Context, status Status) (int, error)
}

// Publisher is the pub/sub collaborator the Executor publishes progress to.
type Publisher interface {
	Publish(topic string, event ProgressEvent)
}

// ProgressTopic is the fixed topic name progress events are published under.
const ProgressTopic = "task:progress"

// Processor runs one task to completion (or failure), calling back into the
// supplied Reporter to stream progress and to check for cancellation between
// suspension points.
type Processor func(ctx context.Context, task *TaskExecution, report Reporter) error

// Reporter is the callback surface a Processor uses to report progress and
// to observe cooperative cancellation.
type Reporter interface {
	Progress(percent int, message string)
	Screenshot(ref string)
	Result(extractedResults string)
	Cancelled() bool
}

// Config tunes the Executor.
type Config struct {
	WorkerParallelism         int
	DefaultTimeoutSeconds     int
	StuckTaskThresholdMinutes int
	RetentionDays             int
	MaxQueueDepth             int // 0 = unbounded
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WorkerParallelism:         4,
		DefaultTimeoutSeconds:     300,
		StuckTaskThresholdMinutes: 30,
		RetentionDays:             7,
		MaxQueueDepth:             0,
	}
}

type taskEntry struct {
	task      *TaskExecution
	mu        sync.Mutex
	cancelled bool
}

// Executor is the bounded-concurrency task scheduler.
type Executor struct {
	cfg Config

	persistence Persistence
	publisher   Publisher

	processorsMu sync.RWMutex
	processors   map[string]Processor

	tasksMu sync.Mutex
	tasks   map[string]*taskEntry

	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     []string // taskIDs, FIFO

	startOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// New constructs an Executor. Start must be called to spin up workers and
// housekeeping.
func New(cfg Config, persistence Persistence, publisher Publisher) *Executor {
	if cfg.WorkerParallelism <= 0 {
		cfg.WorkerParallelism = DefaultConfig().WorkerParallelism
	}
	e := &Executor{
		cfg:         cfg,
		persistence: persistence,
		publisher:   publisher,
		processors:  make(map[string]Processor),
		tasks:       make(map[string]*taskEntry),
		stopCh:      make(chan struct{}),
	}
	e.queueCond = sync.NewCond(&e.queueMu)
	return e
}

// RegisterProcessor binds a sub-processor to a taskType.
func (e *Executor) RegisterProcessor(taskType string, p Processor) {
	e.processorsMu.Lock()
	defer e.processorsMu.Unlock()
	e.processors[taskType] = p
}

// Start launches the worker pool and the two housekeeping tickers. Safe to
// call once; subsequent calls are no-ops.
func (e *Executor) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		for i := 0; i < e.cfg.WorkerParallelism; i++ {
			e.wg.Add(1)
			go e.workerLoop(ctx)
		}
		e.wg.Add(2)
		go e.stuckTaskSweep(ctx)
		go e.retentionSweep(ctx)
	})
}

// Stop signals workers and housekeeping to exit and waits for them.
func (e *Executor) Stop() {
	close(e.stopCh)
	e.queueMu.Lock()
	e.queueCond.Broadcast()
	e.queueMu.Unlock()
	e.wg.Wait()
}

// Submit creates a QUEUED TaskExecution and enqueues it for dispatch.
func (e *Executor) Submit(ctx context.Context, taskType, query string, opts SubmitOptions) (string, error) {
	e.queueMu.Lock()
	if e.cfg.MaxQueueDepth > 0 && len(e.queue) >= e.cfg.MaxQueueDepth {
		e.queueMu.Unlock()
		return "", ErrQueueFull
	}
	e.queueMu.Unlock()

	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = e.cfg.DefaultTimeoutSeconds
	}

	now := time.Now()
	task := &TaskExecution{
		TaskID:         uuid.New().String(),
		TaskType:       taskType,
		OriginalQuery:  query,
		Status:         Queued,
		Created:        now,
		Updated:        now,
		MaxRetries:     opts.MaxRetries,
		TimeoutSeconds: timeoutSeconds,
		RequesterID:    opts.RequesterID,
	}

	e.tasksMu.Lock()
	e.tasks[task.TaskID] = &taskEntry{task: task}
	e.tasksMu.Unlock()

	e.mirror(ctx, task)
	logger.Task("submitted %s (type=%s)", task.TaskID, taskType)

	e.enqueue(task.TaskID)
	return task.TaskID, nil
}

func (e *Executor) enqueue(taskID string) {
	e.queueMu.Lock()
	e.queue = append(e.queue, taskID)
	e.queueCond.Signal()
	e.queueMu.Unlock()
}

func (e *Executor) dequeue() (string, bool) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	for len(e.queue) == 0 {
		select {
		case <-e.stopCh:
			return "", false
		default:
		}
		e.queueCond.Wait()
		select {
		case <-e.stopCh:
			return "", false
		default:
		}
	}
	id := e.queue[0]
	e.queue = e.queue[1:]
	return id, true
}

// Get returns a point-in-time view of the task, or false if unknown.
func (e *Executor) Get(taskID string) (*TaskExecution, bool) {
	e.tasksMu.Lock()
	entry, ok := e.tasks[taskID]
	e.tasksMu.Unlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.task.Clone(), true
}

// Cancel idempotently marks taskID's cancellation token.
// It never blocks on the worker observing it.
func (e *Executor) Cancel(taskID string) bool {
	e.tasksMu.Lock()
	entry, ok := e.tasks[taskID]
	e.tasksMu.Unlock()
	if !ok {
		return false
	}

	entry.mu.Lock()
	entry.cancelled = true
	alreadyTerminal := entry.task.Status.IsTerminal()
	neverStarted := entry.task.Status == Queued
	if neverStarted {
		e.transitionLocked(entry, Cancelled, "")
	}
	entry.mu.Unlock()

	if !alreadyTerminal {
		logger.Task("cancel requested for %s", taskID)
	}
	return true
}

func (e *Executor) workerLoop(ctx context.Context) {
	defer e.wg.Done()
	for {
		taskID, ok := e.dequeue()
		if !ok {
			return
		}
		e.dispatchOne(ctx, taskID)
	}
}

func (e *Executor) dispatchOne(ctx context.Context, taskID string) {
	e.tasksMu.Lock()
	entry, ok := e.tasks[taskID]
	e.tasksMu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	if entry.cancelled {
		e.transitionLocked(entry, Cancelled, "")
		entry.mu.Unlock()
		return
	}
	if entry.task.Status != Queued {
		entry.mu.Unlock()
		return
	}
	entry.task.Status = Running
	entry.task.StartedAt = time.Now()
	entry.task.Updated = entry.task.StartedAt
	taskCopy := entry.task.Clone()
	entry.mu.Unlock()
	e.mirror(ctx, taskCopy)
	e.publishProgress(entry)

	entry.mu.Lock()
	cancelledAfterRoute := entry.cancelled
	if cancelledAfterRoute {
		e.transitionLocked(entry, Cancelled, "")
	}
	entry.mu.Unlock()
	if cancelledAfterRoute {
		return
	}

	e.processorsMu.RLock()
	proc, found := e.processors[taskCopy.TaskType]
	e.processorsMu.RUnlock()
	if !found {
		e.fail(ctx, entry, fmt.Sprintf("Unknown task type: %s", taskCopy.TaskType))
		return
	}

	e.runWithTimeout(ctx, entry, proc, taskCopy)
}

// runWithTimeout invokes proc under the task's timeoutSeconds using the same
// goroutine+channel+select pattern as the Dispatcher's synchronous tool-call
// timeout. No task-state lock is held across the call.
func (e *Executor) runWithTimeout(ctx context.Context, entry *taskEntry, proc Processor, task *TaskExecution) {
	taskCtx, cancel := context.WithTimeout(ctx, time.Duration(task.TimeoutSeconds)*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	reporter := &taskReporter{executor: e, entry: entry}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("panic: %v", r)
			}
		}()
		errCh <- proc(taskCtx, task, reporter)
	}()

	select {
	case err := <-errCh:
		entry.mu.Lock()
		cancelled := entry.cancelled
		entry.mu.Unlock()
		if cancelled {
			e.transition(ctx, entry, Cancelled, "")
			return
		}
		if err != nil {
			e.fail(ctx, entry, err.Error())
			return
		}
		e.complete(ctx, entry)
	case <-taskCtx.Done():
		entry.mu.Lock()
		cancelled := entry.cancelled
		entry.mu.Unlock()
		if cancelled {
			e.transition(ctx, entry, Cancelled, "")
			return
		}
		e.timeout(ctx, entry)
	}
}

func (e *Executor) complete(ctx context.Context, entry *taskEntry) {
	entry.mu.Lock()
	entry.task.ProgressPercent = 100
	e.transitionLocked(entry, Completed, "")
	task := entry.task.Clone()
	entry.mu.Unlock()
	e.mirror(ctx, task)
	e.publishProgress(entry)
}

func (e *Executor) fail(ctx context.Context, entry *taskEntry, reason string) {
	entry.mu.Lock()
	entry.task.ErrorDetails = reason
	shouldRetry := entry.task.RetryCount < entry.task.MaxRetries
	if shouldRetry {
		entry.task.RetryCount++
		entry.task.Status = Queued
		entry.task.Updated = time.Now()
	} else {
		e.transitionLocked(entry, Failed, reason)
	}
	task := entry.task.Clone()
	entry.mu.Unlock()
	e.mirror(ctx, task)
	e.publishProgress(entry)

	if shouldRetry {
		logger.Task("retrying %s (attempt %d/%d): %s", task.TaskID, task.RetryCount, task.MaxRetries, reason)
		e.enqueue(task.TaskID)
	}
}

func (e *Executor) timeout(ctx context.Context, entry *taskEntry) {
	entry.mu.Lock()
	entry.task.ErrorDetails = fmt.Sprintf("task exceeded timeout of %ds", entry.task.TimeoutSeconds)
	e.transitionLocked(entry, TimedOut, entry.task.ErrorDetails)
	task := entry.task.Clone()
	entry.mu.Unlock()
	e.mirror(ctx, task)
	e.publishProgress(entry)
}

// transitionLocked moves entry.task into a terminal status. Caller must hold
// entry.mu.
func (e *Executor) transitionLocked(entry *taskEntry, status Status, errDetails string) {
	if entry.task.Status.IsTerminal() {
		return
	}
	entry.task.Status = status
	now := time.Now()
	entry.task.CompletedAt = now
	entry.task.Updated = now
	if !entry.task.StartedAt.IsZero() {
		entry.task.ActualDurationSeconds = now.Sub(entry.task.StartedAt).Seconds()
	}
	if errDetails != "" {
		entry.task.ErrorDetails = errDetails
	}
}

// transition acquires the entry lock, applies the terminal transition, and
// mirrors and publishes the result.
func (e *Executor) transition(ctx context.Context, entry *taskEntry, status Status, errDetails string) {
	entry.mu.Lock()
	e.transitionLocked(entry, status, errDetails)
	task := entry.task.Clone()
	entry.mu.Unlock()
	e.mirror(ctx, task)
	e.publishProgress(entry)
}

func (e *Executor) mirror(ctx context.Context, task *TaskExecution) {
	if e.persistence == nil {
		return
	}
	if err := e.persistence.Save(ctx, task); err != nil {
		logger.Error("executor: persistence mirror failed for %s: %v", task.TaskID, err)
	}
}

func (e *Executor) publishProgress(entry *taskEntry) {
	e.publishProgressNow(entry, "")
}

// taskReporter implements Reporter for one in-flight task.
type taskReporter struct {
	executor *Executor
	entry    *taskEntry
}

func (r *taskReporter) Progress(percent int, message string) {
	r.entry.mu.Lock()
	if r.entry.task.Status.IsTerminal() {
		r.entry.mu.Unlock()
		return
	}
	r.entry.task.ProgressPercent = percent
	r.entry.task.ProgressMessage = message
	r.entry.task.Updated = time.Now()
	task := r.entry.task.Clone()
	r.entry.mu.Unlock()

	r.executor.mirror(context.Background(), task)
	r.executor.publishProgressNow(r.entry, "")
}

func (r *taskReporter) Screenshot(ref string) {
	r.entry.mu.Lock()
	if r.entry.task.Status.IsTerminal() {
		r.entry.mu.Unlock()
		return
	}
	r.entry.task.Screenshots = append(r.entry.task.Screenshots, ref)
	r.entry.task.Updated = time.Now()
	task := r.entry.task.Clone()
	r.entry.mu.Unlock()

	r.executor.mirror(context.Background(), task)
	r.executor.publishProgressNow(r.entry, ref)
}

func (r *taskReporter) Result(extractedResults string) {
	r.entry.mu.Lock()
	if r.entry.task.Status.IsTerminal() {
		r.entry.mu.Unlock()
		return
	}
	r.entry.task.ExtractedResults = extractedResults
	r.entry.task.Updated = time.Now()
	r.entry.mu.Unlock()
}

func (r *taskReporter) Cancelled() bool {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.entry.cancelled
}

// publishProgressNow publishes unconditionally (used by the progress
// protocol, which fires on every callback, not just terminal transitions).
func (e *Executor) publishProgressNow(entry *taskEntry, newScreenshot string) {
	if e.publisher == nil {
		return
	}
	entry.mu.Lock()
	evt := ProgressEvent{
		TaskID:          entry.task.TaskID,
		Status:          entry.task.Status,
		Message:         entry.task.ProgressMessage,
		ProgressPercent: entry.task.ProgressPercent,
		Screenshots:     append([]string(nil), entry.task.Screenshots...),
		Timestamp:       time.Now(),
		NewScreenshot:   newScreenshot,
	}
	entry.mu.Unlock()
	e.publisher.Publish(ProgressTopic, evt)
}

func (e *Executor) stuckTaskSweep(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	threshold := time.Duration(e.cfg.StuckTaskThresholdMinutes) * time.Minute
	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.sweepStuck(ctx, threshold)
		}
	}
}

func (e *Executor) sweepStuck(ctx context.Context, threshold time.Duration) {
	e.tasksMu.Lock()
	entries := make([]*taskEntry, 0, len(e.tasks))
	for _, entry := range e.tasks {
		entries = append(entries, entry)
	}
	e.tasksMu.Unlock()

	now := time.Now()
	for _, entry := range entries {
		entry.mu.Lock()
		stuck := entry.task.Status == Running && !entry.task.StartedAt.IsZero() && now.Sub(entry.task.StartedAt) > threshold
		taskID, startedAt := entry.task.TaskID, entry.task.StartedAt
		entry.mu.Unlock()
		if stuck {
			logger.Warning("forcing stuck task %s to TIMEOUT (running since %s)", taskID, startedAt)
			e.timeout(ctx, entry)
		}
	}
}

func (e *Executor) retentionSweep(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	retention := time.Duration(e.cfg.RetentionDays) * 24 * time.Hour
	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.evictOld(retention)
		}
	}
}

func (e *Executor) evictOld(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()
	for id, entry := range e.tasks {
		entry.mu.Lock()
		evict := entry.task.Status.IsTerminal() && entry.task.CompletedAt.Before(cutoff)
		entry.mu.Unlock()
		if evict {
			delete(e.tasks, id)
			logger.Task("evicted completed task %s from memory (past retention)", id)
		}
	}
	// persistence retains history; only the in-memory map is evicted. The
	// broker keeps no per-task history, so nothing is evicted from pubsub.
}
