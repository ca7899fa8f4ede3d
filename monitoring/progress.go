package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sarchlab/zealfabric/tracing"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

// ProgressBarStatus is a snapshot of a ProgressBar. A Total of 0 means the
// total is unknown.
type ProgressBarStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Status returns a snapshot of the bar.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.Lock()
	defer b.Unlock()

	return ProgressBarStatus{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// progressTracer shows each DMA transfer as a progress bar counting its
// descriptors. The number of descriptors of a chain is not known in advance.
type progressTracer struct {
	monitor *Monitor

	lock        sync.Mutex
	transfers   map[string]*ProgressBar
	descriptors map[string]*ProgressBar
}

func (t *progressTracer) StartTask(task tracing.Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.transfers == nil {
		t.transfers = make(map[string]*ProgressBar)
		t.descriptors = make(map[string]*ProgressBar)
	}

	switch task.What {
	case "transfer":
		name := fmt.Sprintf("%s transfer", task.Location)
		if addr, ok := task.Detail.(uint32); ok {
			name = fmt.Sprintf("%s transfer @ 0x%06X", task.Location, addr)
		}

		t.transfers[task.ID] = t.monitor.CreateProgressBar(name, 0)
	case "descriptor":
		bar, ok := t.transfers[task.ParentID]
		if !ok {
			return
		}

		bar.IncrementInProgress(1)
		t.descriptors[task.ID] = bar
	}
}

func (t *progressTracer) StepTask(_ tracing.Task) {
	// Do nothing
}

func (t *progressTracer) EndTask(task tracing.Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if bar, ok := t.descriptors[task.ID]; ok {
		bar.MoveInProgressToFinished(1)
		delete(t.descriptors, task.ID)

		return
	}

	if bar, ok := t.transfers[task.ID]; ok {
		t.monitor.CompleteProgressBar(bar)
		delete(t.transfers, task.ID)
	}
}
