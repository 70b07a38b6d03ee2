package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loudPCM builds a full-scale alternating square wave, the loudest signal the
// extractor can see.
func loudPCM(samples int) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(30000)
		if i%2 == 1 {
			v = -30000
		}
		pcm[2*i] = byte(uint16(v))
		pcm[2*i+1] = byte(uint16(v) >> 8)
	}
	return pcm
}

func quietPCM(samples int) []byte {
	return make([]byte, samples*2)
}

func TestLabelForScore(t *testing.T) {
	assert.Equal(t, Distress, LabelForScore(0.85))
	assert.Equal(t, Benign, LabelForScore(0.40))
	assert.Equal(t, Benign, LabelForScore(DistressThreshold))
}

func TestClassifyEmptyBufferIsIndeterminate(t *testing.T) {
	c := NewScreamClassifier()
	assert.Equal(t, Indeterminate, c.Classify(nil).Label)
	assert.Equal(t, Indeterminate, c.Classify([]byte{0x01}).Label)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewScreamClassifier()
	pcm := loudPCM(frameSize * 10)

	first := c.Classify(pcm)
	for i := 0; i < 5; i++ {
		again := c.Classify(pcm)
		require.Equal(t, first.Label, again.Label)
		require.Equal(t, first.Score, again.Score)
	}
}

func TestClassifySeparatesLoudFromSilent(t *testing.T) {
	c := NewScreamClassifier()

	loud := c.Classify(loudPCM(frameSize * windowFrames))
	quiet := c.Classify(quietPCM(frameSize * windowFrames))

	assert.Equal(t, Distress, loud.Label)
	assert.Equal(t, Benign, quiet.Label)
	assert.Greater(t, loud.Score, quiet.Score)
}

func TestClassifyLongBufferTruncates(t *testing.T) {
	c := NewScreamClassifier()

	window := c.Classify(loudPCM(frameSize * windowFrames))
	longer := c.Classify(loudPCM(frameSize * windowFrames * 3))

	assert.InDelta(t, window.Score, longer.Score, 1e-9)
}

func TestExtractPadsShortBuffers(t *testing.T) {
	window, ok := extract(loudPCM(frameSize))
	require.True(t, ok)
	assert.NotZero(t, window[0].energy)
	for f := 1; f < windowFrames; f++ {
		assert.Zero(t, window[f].energy)
	}
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	c := NewScreamClassifier()
	for _, pcm := range [][]byte{loudPCM(100), quietPCM(100), loudPCM(frameSize * 200)} {
		score := c.Classify(pcm).Score
		assert.False(t, math.IsNaN(score))
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
