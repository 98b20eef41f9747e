package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recording = `{"at_ms":0,"event":{"name":"worker_join","id":"w1"}}
{"at_ms":0,"event":{"name":"worker_join","id":"w2"}}
{"at_ms":100,"event":{"name":"start_transfer","start_worker":"w1","end_worker":"w2"}}
{"at_ms":2000,"event":{"name":"end_transfer","start_id":"w1","end_id":"w2"}}
{"at_ms":2100,"event":{"name":"start_swap","id":"w2"}}
`

func runReplay(t *testing.T, opts replayOptions) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(recording), &out, DefaultConfig(), opts))
	return out.String()
}

func TestReplayRendersFinalState(t *testing.T) {
	svg := runReplay(t, replayOptions{seed: 1})

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, `id="worker-w1"`)
	assert.Contains(t, svg, `id="worker-w2"`)
	assert.NotContains(t, svg, `class="transfer"`)
	assert.Contains(t, svg, `fill="rgba(255,165,0,.6)"`, "w2 is still swapping")
}

func TestReplayStopsAtOffset(t *testing.T) {
	svg := runReplay(t, replayOptions{seed: 1, at: time.Second})
	assert.Contains(t, svg, `class="transfer"`)
}

func TestReplayIsDeterministic(t *testing.T) {
	opts := replayOptions{seed: 42, at: time.Second}
	assert.Equal(t, runReplay(t, opts), runReplay(t, opts))
}

func TestReplayRejectsBadRecording(t *testing.T) {
	var out bytes.Buffer
	err := replay(strings.NewReader("{}\nnot json\n"), &out, DefaultConfig(), replayOptions{})
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
