package sampler

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

var reviewFixtures = []string{
	"The battery life on this phone is great, and the camera takes sharp photos even at night.",
	"App crashes every time I open the settings page. Please fix this bug soon!",
	strings.TrimSpace(strings.Repeat("spam ", 20)),
	"Loved the update! Syncing is faster, the dark mode looks clean, and notifications finally arrive on time.",
	"Checkout keeps failing with a payment error. Tried three cards, same result.",
	"Customer support answered within an hour and refunded the duplicate charge.",
	"Too many ads between levels. I would pay to remove them if there was an option.",
	"good",
	"",
	"The map does not load offline even after downloading the region twice.",
}

func generatedReviews(n int) []string {
	subjects := []string{"login", "search", "checkout", "camera", "sync", "widgets", "payments", "maps"}
	verdicts := []string{"works well", "is slow", "crashes often", "looks great", "needs work"}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Review %d: the %s feature %s. Version %d.%d fixed some issues but not all.",
			i, subjects[i%len(subjects)], verdicts[i%len(verdicts)], i/10, i%10)
	}
	return out
}

func TestSample_Empty(t *testing.T) {
	got := Sample(nil, 5000)
	if got == nil || len(got) != 0 {
		t.Errorf("Sample(nil) = %#v, want empty non-nil slice", got)
	}
	if got := Sample([]string{}, 5000); len(got) != 0 {
		t.Errorf("Sample([]) = %v", got)
	}
}

func TestSample_Singleton(t *testing.T) {
	for _, budget := range []int{1, 5, 5000} {
		got := Sample([]string{"x"}, budget)
		if len(got) != 1 || got[0] != "x" {
			t.Errorf("budget %d: got %v, want [x]", budget, got)
		}
	}
}

func TestSample_TinyPair(t *testing.T) {
	got := Sample([]string{"short", ""}, 5000)
	if !reflect.DeepEqual(got, []string{"short", ""}) {
		t.Errorf("got %q, want [short \"\"]", got)
	}
}

func TestSample_Deterministic(t *testing.T) {
	// templated reviews share bigram multisets, so many scores tie exactly
	texts := generatedReviews(333)
	first := New(Options{BudgetChars: 2000}).SampleDetailed(texts)
	if len(first.Picks) == 0 {
		t.Fatal("nothing selected")
	}
	for i := 0; i < 20; i++ {
		got := New(Options{BudgetChars: 2000}).SampleDetailed(texts)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n got  %+v\n want %+v", i, got.Picks, first.Picks)
		}
	}
	if got := Sample(texts, 2000); !reflect.DeepEqual(got, first.Texts()) {
		t.Error("Sample and SampleDetailed disagree")
	}
}

func TestSample_SubsetAndBudget(t *testing.T) {
	texts := append(generatedReviews(250), reviewFixtures...)
	for _, budget := range []int{50, 300, 1000, 5000} {
		t.Run(fmt.Sprintf("budget_%d", budget), func(t *testing.T) {
			res := New(Options{BudgetChars: budget}).SampleDetailed(texts)
			if len(res.Picks) == 0 {
				t.Fatal("no picks")
			}

			seen := make(map[int]bool)
			total := 0
			for _, p := range res.Picks {
				if seen[p.Index] {
					t.Fatalf("index %d picked twice", p.Index)
				}
				seen[p.Index] = true
				if texts[p.Index] != p.Text {
					t.Fatalf("pick %d text does not match input", p.Index)
				}
				total += utf8.RuneCountInString(p.Text)
			}
			if total != res.TotalChars {
				t.Errorf("TotalChars = %d, sum = %d", res.TotalChars, total)
			}
			if len(res.Picks) > 1 && total > budget {
				t.Errorf("total %d exceeds budget %d with %d picks", total, budget, len(res.Picks))
			}
			if res.PoolSize != DefaultPoolCap {
				t.Errorf("PoolSize = %d, want %d", res.PoolSize, DefaultPoolCap)
			}
		})
	}
}

func TestSample_SpamExcludedUnderTightBudget(t *testing.T) {
	spam := strings.TrimSpace(strings.Repeat("spam ", 20))
	review := "The update fixed the login loop but the sync still lags behind a lot."
	got := Sample([]string{spam, review}, 100)
	if len(got) != 1 || got[0] != review {
		t.Errorf("got %q, want only the review", got)
	}
}

func TestSample_SelectionOrder(t *testing.T) {
	res := New(Options{}).SampleDetailed(reviewFixtures)
	if res.Picks[0].Phase != PhaseSeed {
		t.Fatalf("first pick phase = %s", res.Picks[0].Phase)
	}
	for _, p := range res.Picks[1:] {
		if p.Phase != PhaseGrowth {
			t.Errorf("pick %d phase = %s", p.Index, p.Phase)
		}
	}
	if !reflect.DeepEqual(res.Texts(), Sample(reviewFixtures, DefaultBudgetChars)) {
		t.Error("Texts() should match Sample in the same order")
	}
}

func TestSampler_PoolCapOption(t *testing.T) {
	texts := generatedReviews(30)
	res := New(Options{PoolCap: 5, BudgetChars: 100000}).SampleDetailed(texts)
	if res.PoolSize != 5 {
		t.Errorf("PoolSize = %d, want 5", res.PoolSize)
	}
	if len(res.Picks) != 5 {
		t.Errorf("picked %d, want all 5 pool members", len(res.Picks))
	}
}

func TestSampler_ParallelMatchesSequential(t *testing.T) {
	texts := append(generatedReviews(333), reviewFixtures...)
	seq := New(Options{Workers: 1, BudgetChars: 2000}).SampleDetailed(texts)
	for _, workers := range []int{2, 4, 7, 64} {
		par := New(Options{Workers: workers, BudgetChars: 2000}).SampleDetailed(texts)
		if !reflect.DeepEqual(seq, par) {
			t.Errorf("workers=%d result differs from sequential", workers)
		}
	}
}

func TestSampler_Defaults(t *testing.T) {
	s := New(Options{})
	if s.BudgetChars() != DefaultBudgetChars {
		t.Errorf("BudgetChars = %d", s.BudgetChars())
	}
	if got := s.WithBudget(300).BudgetChars(); got != 300 {
		t.Errorf("WithBudget(300) = %d", got)
	}
	if got := s.WithBudget(0).BudgetChars(); got != DefaultBudgetChars {
		t.Errorf("WithBudget(0) = %d", got)
	}
	if s.BudgetChars() != DefaultBudgetChars {
		t.Error("WithBudget must not modify the receiver")
	}
}
