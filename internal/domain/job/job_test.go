package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateCompleted, StateError, StateCancelled} {
		assert.True(t, s.Terminal(), "%s", s)
	}
	for _, s := range []State{StateValidating, StateDownloading, StateDownloaded, StateConverting} {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestProfileByName(t *testing.T) {
	p, ok := ProfileByName("480p")
	require.True(t, ok)
	assert.Equal(t, 854, p.Width)
	assert.Equal(t, 480, p.Height)

	_, ok = ProfileByName("9999p")
	assert.False(t, ok)

	_, ok = ProfileByName("")
	assert.False(t, ok)
}

func TestProfiles_CoverStandardLadder(t *testing.T) {
	names := make([]string, 0)
	for _, p := range Profiles() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"1080p", "720p", "480p", "360p", "240p"}, names)
}

func TestQualityForHeight(t *testing.T) {
	cases := map[int]string{
		2160: "1080p",
		1080: "1080p",
		720:  "720p",
		480:  "480p",
		360:  "360p",
		240:  "240p",
		144:  "240p",
	}
	for height, want := range cases {
		assert.Equal(t, want, QualityForHeight(height), "height %d", height)
	}
}

func TestAppendLog(t *testing.T) {
	var rec Record
	rec.AppendLog("first")
	rec.AppendLog("second")

	require.Len(t, rec.Logs, 2)
	assert.Contains(t, rec.Logs[0], "first")
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] first$`, rec.Logs[0])
}
