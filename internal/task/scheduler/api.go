package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "chessbot/pkg/logx"
)

// AddSchedule parses schedule and registers either a cron or interval task.
//
// Supported schedule formats:
//   - Cron: "*/5 * * * *", "55 * * * *", "@hourly", "@every 55m"
//   - Interval duration: "55m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
func (s *Service) AddSchedule(name, schedule string, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return "", err
	}
	switch ps.Kind {
	case SpecCron:
		return s.AddCron(name, ps.Cron, timeout, job)
	case SpecInterval:
		return s.AddInterval(name, ps.Every, timeout, job)
	default:
		return "", fmt.Errorf("unsupported schedule kind")
	}
}

func (s *Service) AddCron(name, spec string, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	return s.addDef(name, spec, timeout, job)
}

func (s *Service) AddInterval(name string, every time.Duration, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	if every <= 0 {
		return "", errors.New("interval must be > 0")
	}
	spec := fmt.Sprintf("@every %s", every.String())
	return s.addDef(name, spec, timeout, job)
}

func (s *Service) addDef(name, spec string, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		return "", errors.New("name required")
	}
	// Upsert by name: remove previous schedule with the same name to prevent
	// duplicates across hot-reloads or repeated registrations.
	_ = s.removeScheduleLocked(name)
	s.removeOnce(name)
	id := fmt.Sprintf("cron:%d", time.Now().UnixNano())
	d := scheduleDef{
		id:       id,
		name:     name,
		spec:     spec,
		timeout:  timeout,
		job:      job,
		inFlight: &atomic.Bool{},
	}
	s.defs = append(s.defs, d)
	if s.c != nil {
		err := s.addCronLocked(&s.defs[len(s.defs)-1])
		if err != nil {
			s.log.Error("schedule register failed", logx.String("name", name), logx.String("spec", spec), logx.Any("err", err))
		} else {
			s.log.Debug("schedule registered", logx.String("name", name), logx.String("id", id), logx.String("spec", spec), logx.Duration("timeout", timeout))
		}
		// Return the schedule name (stable identifier for Remove(name)).
		return name, err
	}
	// Scheduler not started/enabled yet: keep definition and register when Start() runs.
	return name, nil
}

// AddOnce schedules a single run at the given time. Past times fire immediately.
func (s *Service) AddOnce(name string, at time.Time, timeout time.Duration, job func(ctx context.Context) error) (string, error) {
	if name == "" {
		return "", errors.New("name required")
	}
	if at.IsZero() {
		return "", errors.New("at required")
	}

	// snapshot location under s.mu (also remove any cron/interval schedule with the same name)
	s.mu.Lock()
	loc := s.loc
	_ = s.removeScheduleLocked(name)
	s.mu.Unlock()
	if loc == nil {
		loc = time.Local
	}
	runAt := at.In(loc)

	localName := name

	s.tmu.Lock()
	// upsert: stop existing timer with the same name
	if t, ok := s.timers[localName]; ok {
		_ = t.Stop()
		delete(s.timers, localName)
	}
	// bump version to ignore stale callbacks from previously scheduled timers
	ver := s.onceVer[localName] + 1
	s.onceVer[localName] = ver

	s.onceAt[localName] = runAt
	s.onceTimeout[localName] = timeout
	s.onceJob[localName] = job
	s.timers[localName] = s.onceTimerLocked(localName, runAt, ver)
	s.tmu.Unlock()

	return localName, nil
}

// onceTimerLocked builds the runtime timer for a persisted once definition.
// Call with s.tmu held.
func (s *Service) onceTimerLocked(name string, runAt time.Time, ver uint64) *time.Timer {
	delay := time.Until(runAt)
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(delay, func() {
		// If the task was removed or replaced, ignore this callback.
		s.tmu.Lock()
		curVer := s.onceVer[name]
		jobNow := s.onceJob[name]
		timeoutNow := s.onceTimeout[name]
		_, okAt := s.onceAt[name]
		if curVer != ver || jobNow == nil || !okAt {
			s.tmu.Unlock()
			return
		}
		// cleanup persisted definition first (prevents double-exec on restart)
		delete(s.timers, name)
		delete(s.onceAt, name)
		delete(s.onceTimeout, name)
		delete(s.onceJob, name)
		delete(s.onceVer, name)
		s.tmu.Unlock()

		s.dispatch(name, timeoutNow, nil, jobNow)
	})
}

// Remove unschedules all schedules with the given name. It returns true if something was removed.
// Safe to call even when scheduler is not started/enabled (it will still remove persisted defs).
func (s *Service) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	removed := false

	s.mu.Lock()
	removed = s.removeScheduleLocked(name) || removed
	s.mu.Unlock()

	removed = s.removeOnce(name) || removed

	if removed {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
	return removed
}

// removeScheduleLocked removes all defs matching name and unregisters them from cron if running.
// Call with s.mu held.
func (s *Service) removeScheduleLocked(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	removed := false
	if s.c != nil {
		for i := range s.defs {
			if s.defs[i].name == name && s.defs[i].entryID != 0 {
				s.c.Remove(s.defs[i].entryID)
				s.defs[i].entryID = 0
				removed = true
			}
		}
	}
	// remove from persisted defs regardless of running state
	n := 0
	for _, d := range s.defs {
		if d.name == name {
			removed = true
			continue
		}
		s.defs[n] = d
		n++
	}
	if n < len(s.defs) {
		s.defs = s.defs[:n]
	}
	return removed
}

func (s *Service) removeOnce(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	removed := false
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if t, ok := s.timers[name]; ok {
		_ = t.Stop()
		delete(s.timers, name)
		removed = true
	}
	if _, ok := s.onceAt[name]; ok {
		delete(s.onceAt, name)
		removed = true
	}
	if _, ok := s.onceTimeout[name]; ok {
		delete(s.onceTimeout, name)
		removed = true
	}
	if _, ok := s.onceJob[name]; ok {
		delete(s.onceJob, name)
		removed = true
	}
	if _, ok := s.onceVer[name]; ok {
		delete(s.onceVer, name)
		removed = true
	}
	return removed
}

func (s *Service) addCronLocked(d *scheduleDef) error {
	local := *d
	job := cron.FuncJob(func() {
		s.dispatch(local.name, local.timeout, local.inFlight, local.job)
	})
	eid, err := s.c.AddJob(d.spec, job)
	if err == nil {
		d.entryID = eid
	}
	return err
}

// rebuildOnceTimersLocked recreates runtime timers from the persisted once definitions.
// Call with s.mu held.
func (s *Service) rebuildOnceTimersLocked() {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	// stop any existing timers (should already be empty after Stop())
	for _, t := range s.timers {
		_ = t.Stop()
	}
	s.timers = map[string]*time.Timer{}

	for name, runAt := range s.onceAt {
		job := s.onceJob[name]
		if job == nil {
			delete(s.onceAt, name)
			delete(s.onceTimeout, name)
			delete(s.onceJob, name)
			delete(s.onceVer, name)
			continue
		}
		ver := s.onceVer[name]
		if ver == 0 {
			ver = 1
			s.onceVer[name] = ver
		}
		s.timers[name] = s.onceTimerLocked(name, runAt, ver)
	}
}

// dispatch runs one job on a service-owned goroutine with panic recovery,
// per-job timeout and history recording. inFlight (when non-nil) makes
// overlapping runs of the same schedule skip.
func (s *Service) dispatch(name string, timeout time.Duration, inFlight *atomic.Bool, job func(ctx context.Context) error) {
	if job == nil {
		return
	}
	if inFlight != nil && !inFlight.CompareAndSwap(false, true) {
		s.log.Debug("run skipped (previous still in flight)", logx.String("name", name))
		return
	}

	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()

	run := func(ctx context.Context) error {
		defer func() {
			if inFlight != nil {
				inFlight.Store(false)
			}
		}()
		start := time.Now()
		rctx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			rctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		err := runSafe(rctx, job)
		took := time.Since(start)
		s.recordRun(name, start, took, err)
		if err != nil {
			s.log.Warn("job failed", logx.String("name", name), logx.Duration("took", took), logx.Any("err", err))
		} else {
			s.log.Debug("job done", logx.String("name", name), logx.Duration("took", took))
		}
		// Job errors are recorded, never fatal to the service.
		return nil
	}

	if sup != nil {
		sup.Go0("job."+name, func(ctx context.Context) { _ = run(ctx) })
		return
	}
	go func() { _ = run(context.Background()) }()
}

func runSafe(ctx context.Context, job func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return job(ctx)
}
