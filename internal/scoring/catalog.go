package scoring

import "fmt"

type entry struct {
	exercise Exercise
	aliases  []string
}

var defaultCatalog = []entry{
	{Exercise{Key: "push-ups", DisplayName: "Push-ups", Rule: Standard{Base: 10}}, []string{"pushups", "push-up", "press-ups"}},
	{Exercise{Key: "squats", DisplayName: "Squats", Rule: Standard{Base: 10}}, []string{"squat"}},
	{Exercise{Key: "sit-ups", DisplayName: "Sit-ups", Rule: Standard{Base: 8}}, []string{"situps", "sit-up"}},
	{Exercise{Key: "crunches", DisplayName: "Crunches", Rule: Standard{Base: 6}}, []string{"crunch"}},
	{Exercise{Key: "burpees", DisplayName: "Burpees", Rule: Standard{Base: 15}}, []string{"burpee"}},
	{Exercise{Key: "pull-ups", DisplayName: "Pull-ups", Rule: Standard{Base: 15}}, []string{"pullups", "pull-up", "chin-ups"}},
	{Exercise{Key: "lunges", DisplayName: "Lunges", Rule: Standard{Base: 8}}, []string{"lunge"}},
	{Exercise{Key: "jumping-jacks", DisplayName: "Jumping Jacks", Rule: Standard{Base: 6}}, nil},
	{Exercise{Key: "mountain-climbers", DisplayName: "Mountain Climbers", Rule: Standard{Base: 10}}, nil},
	{Exercise{Key: "plank", DisplayName: "Plank", Rule: Isometric{PerMinute: 5}}, []string{"planks"}},
	{Exercise{Key: "wall-sit", DisplayName: "Wall Sit", Rule: Isometric{PerMinute: 4}}, nil},
	{Exercise{Key: "running", DisplayName: "Running", Rule: Distance{PerKm: 10}}, []string{"run", "jogging"}},
	{Exercise{Key: "cycling", DisplayName: "Cycling", Rule: Distance{PerKm: 4}}, []string{"biking", "bike"}},
	{Exercise{Key: "swimming", DisplayName: "Swimming", Rule: Distance{PerKm: 20}}, []string{"swim"}},
	{Exercise{Key: "yoga", DisplayName: "Yoga", Rule: Session{Flat: 15}}, nil},
	{Exercise{Key: "pilates", DisplayName: "Pilates", Rule: Session{Flat: 15}}, nil},
	{Exercise{Key: "stretching", DisplayName: "Stretching", Rule: Session{Flat: 8}}, []string{"stretch"}},
	{Exercise{Key: "weightlifting", DisplayName: "Weightlifting", Rule: Sets{PerSet: 12}}, []string{"weights", "lifting"}},
}

// NewDefaultRegistry returns a registry populated with the built-in exercises.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range defaultCatalog {
		if err := r.Register(e.exercise, e.aliases...); err != nil {
			panic(fmt.Sprintf("scoring: bad built-in exercise: %v", err))
		}
	}
	return r
}
