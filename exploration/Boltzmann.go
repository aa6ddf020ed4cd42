package exploration

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/riverrun/chessrl/errkind"
)

// Boltzmann selects a legal action by sampling from the softmax
// distribution over that action's values at the configured
// temperature, via gonum/stat/distuv.Categorical.
type Boltzmann struct {
	temperature float64
	source      rand.Source
}

// NewBoltzmann constructs a Boltzmann policy. source must be the same
// kind of RNG stream the seed fabric hands out, since distuv.Categorical
// requires an x/exp/rand.Source rather than the stdlib math/rand one.
func NewBoltzmann(temperature float64, source rand.Source) *Boltzmann {
	return &Boltzmann{temperature: temperature, source: source}
}

func (b *Boltzmann) Select(values []float64, legalActions []int) (int, error) {
	if err := validateLegalActions("exploration.Boltzmann.Select", legalActions); err != nil {
		return NoMove, err
	}
	if b.temperature <= 0 {
		return NoMove, errkind.New("exploration.Boltzmann.Select", errkind.InvalidConfiguration,
			fmt.Errorf("temperature must be > 0, got %v", b.temperature))
	}

	weights := make([]float64, len(legalActions))
	maxValue := values[legalActions[0]]
	for _, a := range legalActions {
		if values[a] > maxValue {
			maxValue = values[a]
		}
	}
	for i, a := range legalActions {
		weights[i] = math.Exp((values[a] - maxValue) / b.temperature)
	}

	dist := distuv.NewCategorical(weights, b.source)
	sampled := int(dist.Rand())
	return legalActions[sampled], nil
}

func (b *Boltzmann) SetRate(rate float64) { b.temperature = rate }
func (b *Boltzmann) Rate() float64        { return b.temperature }
