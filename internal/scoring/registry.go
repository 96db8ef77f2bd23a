package scoring

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/closestmatch"
)

// FallbackKey is the exercise used for names nothing else matches.
const FallbackKey = "other"

// FallbackBase is the base award for unrecognised exercises.
const FallbackBase = 5

// minSimilarity is the bigram overlap a fuzzy candidate needs to be accepted.
const minSimilarity = 0.5

// Registry manages exercise registration and lookup.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	exercises map[string]Exercise
	aliases   map[string]string
	matcher   *closestmatch.ClosestMatch
	fallback  Exercise
}

// NewRegistry creates an empty registry with the fallback exercise.
func NewRegistry() *Registry {
	return &Registry{
		exercises: make(map[string]Exercise),
		aliases:   make(map[string]string),
		fallback: Exercise{
			Key:         FallbackKey,
			DisplayName: "Other",
			Rule:        Standard{Base: FallbackBase},
		},
	}
}

// Normalize lowercases a name and joins words with dashes.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), "-")
}

// Register adds an exercise under its key and optional aliases.
// An exercise with the same key is replaced.
func (r *Registry) Register(e Exercise, aliases ...string) error {
	if e.Rule == nil {
		return fmt.Errorf("exercise %q has no rule", e.Key)
	}
	key := Normalize(e.Key)
	if key == "" {
		return fmt.Errorf("exercise key cannot be empty")
	}
	e.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	r.exercises[key] = e
	for _, a := range aliases {
		r.aliases[Normalize(a)] = key
	}
	r.rebuildMatcher()
	return nil
}

func (r *Registry) rebuildMatcher() {
	names := make([]string, 0, len(r.exercises)+len(r.aliases))
	for k := range r.exercises {
		names = append(names, k)
	}
	for a := range r.aliases {
		names = append(names, a)
	}
	r.matcher = closestmatch.New(names, []int{2, 3})
}

// Get retrieves an exercise by exact key or alias.
func (r *Registry) Get(name string) (Exercise, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(Normalize(name))
}

func (r *Registry) getLocked(key string) (Exercise, bool) {
	if e, ok := r.exercises[key]; ok {
		return e, true
	}
	if target, ok := r.aliases[key]; ok {
		e, ok := r.exercises[target]
		return e, ok
	}
	return Exercise{}, false
}

// Resolve maps a free-form name to an exercise: exact key, then alias, then
// the closest registered name, then the fallback.
func (r *Registry) Resolve(name string) Exercise {
	key := Normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.getLocked(key); ok {
		return e
	}
	if r.matcher != nil && key != "" {
		if candidate := r.matcher.Closest(key); candidate != "" && similarity(key, candidate) >= minSimilarity {
			if e, ok := r.getLocked(candidate); ok {
				return e
			}
		}
	}
	return r.fallback
}

// Score validates the input and scores it against the resolved exercise.
func (r *Registry) Score(name string, duration, reps int) (Score, error) {
	if err := Validate(strings.TrimSpace(name), duration, reps); err != nil {
		return Score{}, err
	}
	return Award(r.Resolve(name), duration, reps), nil
}

// List returns all registered exercises sorted by key, fallback last.
func (r *Registry) List() []Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Exercise, 0, len(r.exercises)+1)
	for _, e := range r.exercises {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return append(list, r.fallback)
}

// similarity is the Dice coefficient over character bigrams.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	grams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		grams[a[i:i+2]]++
	}
	shared := 0
	for i := 0; i < len(b)-1; i++ {
		g := b[i : i+2]
		if grams[g] > 0 {
			grams[g]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)-1+len(b)-1)
}
