package runner

import (
	"sync"
	"time"

	"github.com/yadejumobi/foundrymesh/core"
)

// runStore keeps finished and in-flight runs for status lookups. Runs are
// volatile: the sweep evicts finalized runs once they age past the
// retention window, after which Status answers ErrRunNotFound.
type runStore struct {
	mu   sync.RWMutex
	runs map[string]*core.OrchestrationRun
}

func newRunStore() *runStore {
	return &runStore{runs: make(map[string]*core.OrchestrationRun)}
}

func (s *runStore) add(run *core.OrchestrationRun) {
	s.mu.Lock()
	s.runs[run.ID()] = run
	s.mu.Unlock()
}

func (s *runStore) get(runID string) (*core.OrchestrationRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	return run, ok
}

// evict removes finalized runs older than the retention window and returns
// their identities so the caller can drop the matching trace spans.
func (s *runStore) evict(now time.Time, retention time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for id, run := range s.runs {
		if run.Finalized() && now.Sub(run.CreatedAt()) > retention {
			delete(s.runs, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
