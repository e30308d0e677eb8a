package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"famcal/internal/ics"
	appLog "famcal/internal/log"
	"famcal/internal/member"
	"famcal/internal/model"
)

// FetchFunc supplies the raw feed body for one refresh run.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Controller owns the published event-instance set and drives the
// refresh lifecycle: Idle -> Loading -> {Ready, Stale-Error}, re-entering
// Loading on the cron schedule or a manual retry.
//
// Entering a refresh never clears the published set; a failed run with
// prior data keeps that data (stale-while-revalidate) and only a failed
// first run surfaces a full error state.
type Controller struct {
	fetch     FetchFunc
	directory *member.Directory
	location  *time.Location

	// Clock is swappable for deterministic window tests.
	Clock Clock

	// MaxPerSeries overrides the expander's occurrence cap when positive.
	MaxPerSeries int

	cron *cron.Cron

	// runMu serializes pipeline runs; the schedule interval normally
	// keeps runs from overlapping, the mutex makes that a property.
	runMu sync.Mutex

	// mu guards the snapshot.
	mu   sync.RWMutex
	snap model.Snapshot
}

// NewController wires a controller from its collaborators. The location
// is the display timezone; nil means the host's local zone.
func NewController(fetch FetchFunc, directory *member.Directory, location *time.Location) *Controller {
	if location == nil {
		location = time.Local
	}
	return &Controller{
		fetch:     fetch,
		directory: directory,
		location:  location,
		Clock:     SystemClock{},
		snap: model.Snapshot{
			Events: []model.EventInstance{},
			State:  model.StateLoading,
		},
	}
}

// Snapshot returns a copy of the current published set and status.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.snap
	snap.Events = make([]model.EventInstance, len(c.snap.Events))
	copy(snap.Events, c.snap.Events)
	return snap
}

// Start performs the initial refresh in the background and schedules
// periodic runs on the given cron spec.
func (c *Controller) Start(ctx context.Context, cronSpec string) error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(cronSpec, func() {
		_ = c.Refresh(ctx)
	})
	if err != nil {
		return err
	}

	go func() {
		_ = c.Refresh(ctx)
	}()
	c.cron.Start()

	appLog.Info("refresh controller started", "schedule", cronSpec)
	return nil
}

// Stop tears down the schedule. In-flight runs complete.
func (c *Controller) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// Refresh executes one full pipeline run: fetch -> parse -> expand ->
// resolve+normalize -> filter -> sort -> publish. Exactly one state
// transition fires per run, success or failure. A manual retry calls
// this directly, out of schedule, without touching the cron timer.
func (c *Controller) Refresh(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	runID := uuid.NewString()
	c.setRefreshing(true)

	now := c.Clock.Now().In(c.location)
	windowStart := now.AddDate(0, -1, 0)
	windowEnd := now.AddDate(1, 0, 0)

	appLog.Debug("refresh run start", "run_id", runID,
		"window_start", windowStart.Format(time.RFC3339),
		"window_end", windowEnd.Format(time.RFC3339))

	body, err := c.fetch(ctx)
	if err != nil {
		return c.fail(runID, err)
	}

	events, err := ics.Parse(body)
	if err != nil {
		return c.fail(runID, err)
	}

	occurrences, err := ics.Expand(events, ics.ExpandConfig{
		DisplayLocation: c.location,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		MaxPerSeries:    c.MaxPerSeries,
	})
	if err != nil {
		return c.fail(runID, err)
	}

	instances := make([]model.EventInstance, 0, len(occurrences))
	for _, occ := range occurrences {
		attr := c.directory.Resolve(occ)
		inst := Normalize(occ, attr)
		if inst.Start.IsZero() || inst.Title == "" {
			continue
		}
		instances = append(instances, inst)
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Start.Before(instances[j].Start)
	})

	c.mu.Lock()
	c.snap = model.Snapshot{
		Events:      instances,
		State:       model.StateReady,
		Stale:       false,
		Refreshing:  false,
		LastSuccess: now,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	c.mu.Unlock()

	appLog.Info("refresh run success", "run_id", runID, "event_count", len(instances))
	return nil
}

// fail records a run failure. With prior published data the set stays
// untouched and only the stale flag rises; with no prior data the
// controller enters the full error state with the failure's message.
func (c *Controller) fail(runID string, err error) error {
	c.mu.Lock()
	c.snap.Refreshing = false
	c.snap.Error = err.Error()
	if len(c.snap.Events) > 0 {
		c.snap.Stale = true
	} else {
		c.snap.State = model.StateError
	}
	c.mu.Unlock()

	appLog.Error("refresh run failed", err, "run_id", runID)
	return err
}

func (c *Controller) setRefreshing(v bool) {
	c.mu.Lock()
	c.snap.Refreshing = v
	c.mu.Unlock()
}
