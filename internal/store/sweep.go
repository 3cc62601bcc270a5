package store

import (
	"os"
	"time"

	"github.com/gofrs/flock"
)

// Sweep removes every session whose meta.json is older than ttl. It
// takes a non-blocking advisory lock on a sentinel file at the data
// root first, so two sweep passes never overlap. Session creation does
// not take this lock; a session still being ingested has no meta.json
// yet and is skipped for that reason. The lock is a best-effort guard,
// not a correctness requirement — correctness still rests on
// meta.json-first deletion — so a lock that cannot be acquired is
// simply skipped until the next sweep.
func (s *Store) Sweep(ttl time.Duration) (removed []string, err error) {
	fl := flock.New(s.lockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	defer fl.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-ttl)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		info, err := os.Stat(s.metaPath(id))
		if err != nil {
			// no meta.json yet (ingest still in progress, or not a
			// session directory at all) — never sweep it.
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := s.Delete(id); err == nil {
				removed = append(removed, id)
			}
		}
	}
	return removed, nil
}

// RunSweeper runs Sweep every period until stop is closed, logging
// through logFn (typically *logging.Logger.Errorf) on sweep errors.
func (s *Store) RunSweeper(stop <-chan struct{}, period, ttl time.Duration, logFn func(format string, args ...interface{})) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Sweep(ttl); err != nil && logFn != nil {
				logFn("session sweep failed: %v", err)
			}
		}
	}
}
