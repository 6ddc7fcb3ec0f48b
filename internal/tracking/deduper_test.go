package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTrackFiresOncePerSignature(t *testing.T) {
	d := NewDeduper()

	assert.True(t, d.ShouldTrack("near:45.520:-122.680:distance"))
	assert.False(t, d.ShouldTrack("near:45.520:-122.680:distance"))
	assert.False(t, d.ShouldTrack("near:45.520:-122.680:distance"))
}

func TestShouldTrackDistinctSignatures(t *testing.T) {
	d := NewDeduper()

	assert.True(t, d.ShouldTrack("search:coffee"))
	assert.True(t, d.ShouldTrack("search:tea"))
	assert.True(t, d.ShouldTrack("near:45.520:-122.680:distance"))
	assert.False(t, d.ShouldTrack("search:coffee"))
}

func TestShouldTrackIgnoresEmptySignature(t *testing.T) {
	d := NewDeduper()

	assert.False(t, d.ShouldTrack(""))
	assert.False(t, d.ShouldTrack(""))
}

func TestFreshDeduperStartsClean(t *testing.T) {
	d1 := NewDeduper()
	assert.True(t, d1.ShouldTrack("search:coffee"))

	// A new session has no memory of previous sessions.
	d2 := NewDeduper()
	assert.True(t, d2.ShouldTrack("search:coffee"))
}
