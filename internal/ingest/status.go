package ingest

import "time"

// State is the orchestrator's coarse activity.
type State string

const (
	StateIdle         State = "idle"
	StateRunning      State = "running"
	StateReprocessing State = "reprocessing"
)

// Status is a snapshot of orchestrator activity and the last results.
type Status struct {
	State         State            `json:"state"`
	CycleID       string           `json:"cycle_id,omitempty"`
	StartedAt     time.Time        `json:"started_at,omitzero"`
	LastReport    *CycleReport     `json:"last_report,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
	LastReprocess *ReprocessReport `json:"last_reprocess,omitempty"`
}

// Status returns the current activity and copies of the latest reports.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snapshot := o.status
	if snapshot.LastReport != nil {
		report := *snapshot.LastReport
		report.Feeds = append([]FeedResult(nil), report.Feeds...)
		snapshot.LastReport = &report
	}
	if snapshot.LastReprocess != nil {
		reprocess := *snapshot.LastReprocess
		snapshot.LastReprocess = &reprocess
	}
	return snapshot
}

func (o *Orchestrator) setCycleID(id string) {
	o.mu.Lock()
	o.status.CycleID = id
	o.mu.Unlock()
}

func (o *Orchestrator) recordCycle(report CycleReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.LastReport = &report
	if err != nil {
		o.status.LastError = err.Error()
	} else {
		o.status.LastError = ""
	}
}

func (o *Orchestrator) recordReprocess(report ReprocessReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.LastReprocess = &report
}
