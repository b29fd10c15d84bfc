package jobs

import (
	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

// IndexCheck verifies the search index schema on a schedule and rebuilds it
// when the virtual tables have drifted from the expected shape.
type IndexCheck struct {
	store    store.Store
	schedule string
}

func NewIndexCheck(schedule string, st store.Store) *IndexCheck {
	if schedule == "" {
		schedule = "@every 10m"
	}
	return &IndexCheck{store: st, schedule: schedule}
}

func (i *IndexCheck) Name() string {
	return "index_check"
}

func (i *IndexCheck) Schedule() string {
	return i.schedule
}

func (i *IndexCheck) Run() {
	if err := i.store.VerifySchema(); err != nil {
		logrus.Errorf("search index verification failed: %v", err)
	}
}
