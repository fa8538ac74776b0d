package services

import (
	"math/rand/v2"
	"time"

	"github.com/wildlens/apiserver/types"
)

// GuessableSpecies is the fixed set the placeholder guess draws from.
var GuessableSpecies = []string{"Loup", "Renard", "Ours", "Cerf"}

// SpeciesGuesser returns a random species. It does not look at the image and
// stands in until a real classifier exists.
type SpeciesGuesser struct {
	pick func(n int) int
	now  func() time.Time
}

func NewSpeciesGuesser() *SpeciesGuesser {
	return &SpeciesGuesser{pick: rand.IntN, now: time.Now}
}

func (g *SpeciesGuesser) Guess() types.Analysis {
	return types.Analysis{
		Species:     GuessableSpecies[g.pick(len(GuessableSpecies))],
		Timestamp:   g.now().UTC().Format(types.TimestampLayout),
		ImageCount:  1,
		AverageTime: "10s",
	}
}
