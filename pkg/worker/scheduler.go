package worker

import (
	"time"
)

// checkInterval is how often the scheduler compares the clock against the
// configured minute/hour/weekday lists.
const checkInterval = 20 * time.Second

func (w *Worker) runScheduler() {
	defer close(w.doneScheduler)

	if !w.config.ScanScheduleEnabled {
		<-w.shutdown
		return
	}

	timer := time.NewTimer(checkInterval)
	defer timer.Stop()

	lastFired := ""
	for {
		select {
		case <-w.shutdown:
			return
		case now := <-timer.C:
			if key := now.Format("2006-01-02 15:04"); w.scheduleMatches(now) && key != lastFired {
				lastFired = key
				if err := w.TriggerScan(); err != nil {
					// A still-running pass owns the lock; this slot is skipped
					// rather than queued.
					w.log.Err(err).Warn("scheduled scan skipped")
				}
			}
			timer.Reset(checkInterval)
		}
	}
}

func (w *Worker) scheduleMatches(now time.Time) bool {
	return containsInt(w.config.ScanScheduleMinutes, now.Minute()) &&
		containsInt(w.config.ScanScheduleHours, now.Hour()) &&
		containsInt(w.config.ScanScheduleDays, int(now.Weekday()))
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
