// Package sampler picks a small, high-quality, mutually diverse subset of
// short texts that fits a character budget.
package sampler

import (
	"sync"
)

// DefaultBudgetChars is the character budget used when none is given.
const DefaultBudgetChars = 5000

// Options configures a Sampler. Zero values select the defaults.
type Options struct {
	BudgetChars int
	PoolCap     int
	Workers     int
}

// Sampler is safe for concurrent use; it keeps no state between calls.
type Sampler struct {
	budgetChars int
	poolCap     int
	workers     int
}

// Result is the detailed outcome of one sampling call.
type Result struct {
	Picks       []Pick `json:"picks"`
	InputCount  int    `json:"inputCount"`
	PoolSize    int    `json:"poolSize"`
	BudgetChars int    `json:"budgetChars"`
	TotalChars  int    `json:"totalChars"`
}

// Texts returns the selected texts in selection order.
func (r Result) Texts() []string {
	out := make([]string, len(r.Picks))
	for i, p := range r.Picks {
		out[i] = p.Text
	}
	return out
}

func New(opts Options) *Sampler {
	s := &Sampler{
		budgetChars: opts.BudgetChars,
		poolCap:     opts.PoolCap,
		workers:     opts.Workers,
	}
	if s.budgetChars <= 0 {
		s.budgetChars = DefaultBudgetChars
	}
	if s.poolCap <= 0 {
		s.poolCap = DefaultPoolCap
	}
	if s.workers <= 0 {
		s.workers = 1
	}
	return s
}

// BudgetChars reports the configured character budget.
func (s *Sampler) BudgetChars() int { return s.budgetChars }

// WithBudget returns a copy of s using a different budget. Non-positive
// budgets keep the current one.
func (s *Sampler) WithBudget(budgetChars int) *Sampler {
	cp := *s
	if budgetChars > 0 {
		cp.budgetChars = budgetChars
	}
	return &cp
}

// Sample returns the selected texts in the order they were chosen.
func (s *Sampler) Sample(texts []string) []string {
	return s.SampleDetailed(texts).Texts()
}

// SampleDetailed runs the same selection as Sample and reports the scores
// behind every pick.
func (s *Sampler) SampleDetailed(texts []string) Result {
	res := Result{
		Picks:       []Pick{},
		InputCount:  len(texts),
		BudgetChars: s.budgetChars,
	}
	if len(texts) == 0 {
		return res
	}

	scores := s.Scores(texts)
	pool := BuildPool(scores, s.poolCap)
	sel := selectDiverse(texts, pool, scores, s.budgetChars)

	res.Picks = sel.picks
	res.PoolSize = len(pool)
	res.TotalChars = sel.chars
	return res
}

// Scores evaluates every text, splitting the work across the configured
// number of workers. scores[i] always belongs to texts[i].
func (s *Sampler) Scores(texts []string) []float64 {
	scores := make([]float64, len(texts))
	if s.workers <= 1 || len(texts) < 2 {
		for i, t := range texts {
			scores[i] = Evaluate(t)
		}
		return scores
	}

	chunk := (len(texts) + s.workers - 1) / s.workers
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += chunk {
		start := start // per-iteration copy; go.mod targets go1.21 loop semantics
		end := min(start+chunk, len(texts))
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			for i := start; i < end; i++ {
				scores[i] = Evaluate(texts[i])
			}
		}()
	}
	wg.Wait()
	return scores
}

// Sample selects from texts with the default pool size under budgetChars.
func Sample(texts []string, budgetChars int) []string {
	return New(Options{BudgetChars: budgetChars}).Sample(texts)
}
