// Package jobs runs the periodic maintenance tasks: memory pressure checks
// on the cache and schema verification of the search index.
package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Name() string
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor schedules cron jobs and guards against overlapping runs of
// the same job.
type TaskExecutor struct {
	cron    *cron.Cron
	jobs    []CronJob
	running mapset.Set[string]
	mu      sync.Mutex
}

func NewTaskExecutor(jobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[string](),
	}
}

// Run registers every job with the cron and starts it. A job still running
// when its next tick arrives is skipped, not stacked.
func (t *TaskExecutor) Run() error {
	for _, job := range t.jobs {
		job := job
		err := t.cron.AddFunc(job.Schedule(), func() {
			t.mu.Lock()
			if t.running.Contains(job.Name()) {
				t.mu.Unlock()
				logrus.Warnf("job %s is still running, skipping this tick", job.Name())
				return
			}
			t.running.Add(job.Name())
			t.mu.Unlock()

			defer func() {
				t.mu.Lock()
				t.running.Remove(job.Name())
				t.mu.Unlock()
			}()

			job.Run()
		})
		if err != nil {
			logrus.Errorf("failed to schedule job %s: %v", job.Name(), err)
			return err
		}
	}

	t.cron.Start()
	return nil
}

func (t *TaskExecutor) Stop() {
	logrus.Info("stopping scheduled jobs")
	t.cron.Stop()
}
