package seed

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/huntboard/internal/domain/model"
)

// Time ranges in seconds.
const (
	fastMin   = 20 * 60
	fastRange = 25 * 60
	slowMin   = 45 * 60
	slowRange = 90 * 60
	tiePool   = 5
)

var teamWords = []string{
	"Cipher", "Lantern", "Compass", "Riddle", "Falcon", "Quasar",
	"Nomad", "Vertex", "Ember", "Atlas", "Orbit", "Pixel",
}

// Generate returns n random submissions with unique team names and keys.
// Roughly one in five reuses a small pool of times so ties get exercised.
func Generate(n int, rng *rand.Rand) []Submission {
	out := make([]Submission, n)
	for i := range out {
		out[i] = Submission{
			Key:        uuid.NewString(),
			TeamName:   fmt.Sprintf("%s %s %d", pick(rng, teamWords), pick(rng, teamWords), i+1),
			Year:       string(pick(rng, model.Years)),
			Department: pick(rng, model.Departments),
			TimeTaken:  randomTime(rng),
		}
	}
	return out
}

func randomTime(rng *rand.Rand) int {
	switch rng.IntN(5) {
	case 0:
		return fastMin + rng.IntN(tiePool)*60
	case 1, 2:
		return fastMin + rng.IntN(fastRange)
	default:
		return slowMin + rng.IntN(slowRange)
	}
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}
