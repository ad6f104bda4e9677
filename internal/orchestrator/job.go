package orchestrator

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/model"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRunning    Status = "running"
	StatusCancelling Status = "cancelling"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Active reports whether a job in this state holds the job slot.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusCancelling
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusFailed
}

// Job is one run over a document. Status and the page counter are read
// without locks; results are written only by the page loop.
type Job struct {
	id        string
	tier      model.Tier
	total     int
	startedAt time.Time

	status  atomic.Value
	current atomic.Int64

	mu         sync.RWMutex
	results    []internal.TranslatedPage
	err        error
	finishedAt time.Time

	finishOnce sync.Once
	done       chan struct{}
}

func newJob(tier model.Tier, total int) *Job {
	j := &Job{
		id:        uuid.New().String(),
		tier:      tier,
		total:     total,
		startedAt: time.Now(),
		results:   make([]internal.TranslatedPage, 0, total),
		done:      make(chan struct{}),
	}
	j.status.Store(StatusRunning)
	return j
}

func (j *Job) ID() string { return j.id }

func (j *Job) Status() Status { return j.status.Load().(Status) }

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) append(p internal.TranslatedPage) {
	j.mu.Lock()
	j.results = append(j.results, p)
	j.mu.Unlock()
}

func (j *Job) finish(status Status, err error) {
	j.finishOnce.Do(func() {
		j.mu.Lock()
		j.err = err
		j.finishedAt = time.Now()
		j.status.Store(status)
		j.mu.Unlock()
		close(j.done)
	})
}

// Snapshot is a point-in-time copy of a job.
type Snapshot struct {
	ID          string                    `json:"job_id,omitempty"`
	Status      Status                    `json:"status"`
	Quality     model.Tier                `json:"quality,omitempty"`
	CurrentPage int                       `json:"current_page"`
	TotalPages  int                       `json:"total_pages"`
	Results     []internal.TranslatedPage `json:"results"`
	Error       string                    `json:"error,omitempty"`
	StartedAt   *time.Time                `json:"started_at,omitempty"`
	FinishedAt  *time.Time                `json:"finished_at,omitempty"`

	Err error `json:"-"`
}

func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	started := j.startedAt
	s := Snapshot{
		ID:          j.id,
		Status:      j.Status(),
		Quality:     j.tier,
		CurrentPage: int(j.current.Load()),
		TotalPages:  j.total,
		Results:     slices.Clone(j.results),
		StartedAt:   &started,
		Err:         j.err,
	}
	if s.Results == nil {
		s.Results = []internal.TranslatedPage{}
	}
	if j.err != nil {
		s.Error = apperrors.PublicMessage(j.err)
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		s.FinishedAt = &finished
	}
	return s
}
