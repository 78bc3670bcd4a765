// Package study keeps the experiments of one server session in memory. A study
// bundles factor definitions, the generated design with its observed outputs,
// the output specification limits and the optimizer tolerances.
package study

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/simulation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no study exists for an id.
var ErrNotFound = errors.New("study not found")

// Study is a snapshot of one experiment.
type Study struct {
	ID         string                          `json:"id"`
	Name       string                          `json:"name"`
	Factors    []doe.Factor                    `json:"factors"`
	Runs       []doe.Run                       `json:"runs"`
	LSL        *float64                        `json:"lsl,omitempty"`
	USL        *float64                        `json:"usl,omitempty"`
	Tolerances map[string]simulation.Tolerance `json:"tolerances,omitempty"`
	CreatedAt  time.Time                       `json:"createdAt"`
	UpdatedAt  time.Time                       `json:"updatedAt"`
}

func (s *Study) clone() Study {
	c := *s
	c.Factors = make([]doe.Factor, len(s.Factors))
	for i, f := range s.Factors {
		f.Levels = slices.Clone(f.Levels)
		c.Factors[i] = f
	}
	c.Runs = make([]doe.Run, len(s.Runs))
	for i, r := range s.Runs {
		r.Factors = maps.Clone(r.Factors)
		if r.Output != nil {
			y := *r.Output
			r.Output = &y
		}
		c.Runs[i] = r
	}
	c.LSL = clonePtr(s.LSL)
	c.USL = clonePtr(s.USL)
	c.Tolerances = maps.Clone(s.Tolerances)
	return c
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Store provides thread-safe storage for studies.
type Store struct {
	mu      sync.RWMutex
	studies map[string]*Study
	now     func() time.Time
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		studies: make(map[string]*Study),
		now:     time.Now,
	}
}

// Create validates the factors, generates their full-factorial design and stores
// the new study.
func (s *Store) Create(name string, factors []doe.Factor) (Study, error) {
	factors = withIDs(factors)
	if err := doe.ValidateFactors(factors); err != nil {
		return Study{}, err
	}

	now := s.now()
	st := &Study{
		ID:         uuid.NewString(),
		Name:       name,
		Factors:    factors,
		Runs:       doe.Generate(factors),
		Tolerances: simulation.DefaultTolerances(factors),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.studies[st.ID] = st
	s.mu.Unlock()

	log.Debug().Str("study", st.ID).Int("factors", len(factors)).Int("runs", len(st.Runs)).Msg("Study created")
	return st.clone(), nil
}

// Get returns a copy of the study.
func (s *Store) Get(id string) (Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.studies[id]
	if !ok {
		return Study{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st.clone(), nil
}

// List returns copies of all studies, oldest first.
func (s *Store) List() []Study {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Study, 0, len(s.studies))
	for _, st := range s.studies {
		out = append(out, st.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Regenerate replaces the factors of a study and generates a fresh design. All
// previously recorded outputs are discarded and the tolerances reset.
func (s *Store) Regenerate(id string, factors []doe.Factor) (Study, error) {
	factors = withIDs(factors)
	if err := doe.ValidateFactors(factors); err != nil {
		return Study{}, err
	}
	return s.update(id, func(st *Study) error {
		st.Factors = factors
		st.Runs = doe.Generate(factors)
		st.Tolerances = simulation.DefaultTolerances(factors)
		return nil
	})
}

// UpdateRuns applies fn to the runs of a study. fn must return a run list of the
// same design, typically via doe.SetOutput or doe.PasteOutputs.
func (s *Store) UpdateRuns(id string, fn func([]doe.Run) []doe.Run) (Study, error) {
	return s.update(id, func(st *Study) error {
		runs := fn(st.Runs)
		if len(runs) != len(st.Runs) {
			return fmt.Errorf("run count changed from %d to %d", len(st.Runs), len(runs))
		}
		st.Runs = runs
		return nil
	})
}

// SetLimits stores the output specification limits. A nil bound is unbounded.
func (s *Store) SetLimits(id string, lsl, usl *float64) (Study, error) {
	if lsl != nil && usl != nil && *lsl > *usl {
		return Study{}, fmt.Errorf("lower limit %v is above upper limit %v", *lsl, *usl)
	}
	return s.update(id, func(st *Study) error {
		st.LSL = clonePtr(lsl)
		st.USL = clonePtr(usl)
		return nil
	})
}

// SetTolerances merges tolerances into the study. Names must match its factors.
func (s *Store) SetTolerances(id string, tolerances map[string]simulation.Tolerance) (Study, error) {
	return s.update(id, func(st *Study) error {
		known := make(map[string]bool, len(st.Factors))
		for _, f := range st.Factors {
			known[f.Name] = true
		}
		for name, t := range tolerances {
			if !known[name] {
				return fmt.Errorf("tolerance for unknown factor %q", name)
			}
			if t.Lower > t.Upper {
				return fmt.Errorf("tolerance for %q has lower limit above upper limit", name)
			}
		}
		if st.Tolerances == nil {
			st.Tolerances = make(map[string]simulation.Tolerance, len(tolerances))
		}
		maps.Copy(st.Tolerances, tolerances)
		return nil
	})
}

// Delete removes a study.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.studies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.studies, id)
	log.Debug().Str("study", id).Msg("Study deleted")
	return nil
}

// update runs fn on a working copy and commits it only when fn succeeds.
func (s *Store) update(id string, fn func(*Study) error) (Study, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.studies[id]
	if !ok {
		return Study{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	work := st.clone()
	if err := fn(&work); err != nil {
		return Study{}, err
	}
	work.UpdatedAt = s.now()
	s.studies[id] = &work
	return work.clone(), nil
}

// withIDs returns a copy of factors where every factor without an id gets one.
func withIDs(factors []doe.Factor) []doe.Factor {
	out := make([]doe.Factor, len(factors))
	for i, f := range factors {
		if f.ID == "" {
			f = doe.NewFactor(f.Name, f.Levels...)
		} else {
			f.Levels = slices.Clone(f.Levels)
		}
		out[i] = f
	}
	return out
}
