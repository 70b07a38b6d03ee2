package classifier

import "math"

// Label is the outcome of classifying one audio buffer.
type Label string

const (
	Distress      Label = "distress"
	Benign        Label = "benign"
	Indeterminate Label = "indeterminate"
)

// DistressThreshold is the score above which a buffer counts as distress.
const DistressThreshold = 0.7

// Result carries the label and the raw score behind it.
type Result struct {
	Label Label
	Score float64
}

// Classifier scores one complete audio buffer. Implementations must be pure:
// the same bytes always produce the same result.
type Classifier interface {
	Classify(pcm []byte) Result
}

// LabelForScore applies the decision threshold. Scores at exactly the
// threshold are benign.
func LabelForScore(score float64) Label {
	if score > DistressThreshold {
		return Distress
	}
	return Benign
}

// ScreamClassifier detects sustained high-energy vocal content in raw PCM.
// The weights were fitted offline against labeled scream recordings and are
// frozen here.
type ScreamClassifier struct{}

func NewScreamClassifier() *ScreamClassifier {
	return &ScreamClassifier{}
}

const (
	wEnergy    = 3.4
	wZeroCross = 1.1
	wPeak      = 2.2
	bias       = -2.9
)

func (c *ScreamClassifier) Classify(pcm []byte) Result {
	window, ok := extract(pcm)
	if !ok {
		return Result{Label: Indeterminate, Score: 0}
	}

	// Average the per-frame activations so a brief spike in an otherwise
	// quiet buffer does not dominate.
	var sum float64
	for _, f := range window {
		z := wEnergy*math.Sqrt(f.energy) + wZeroCross*f.zeroCross + wPeak*f.peak + bias
		sum += sigmoid(z)
	}
	score := sum / windowFrames

	return Result{Label: LabelForScore(score), Score: score}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
