package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/presence"
)

func ptr[T any](v T) *T { return &v }

func TestBuildPayloadFromFlags(t *testing.T) {
	got, err := buildPayload(payloadInput{
		SelfName: ptr("Ana"),
		Activity: ptr("Typing"),
		Users:    []string{"Bo:Browsing", "Cy", " Di : Idle "},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"selfName":       "Ana",
		"selfActivity":   "Typing",
		"connectedCount": 3,
		"users": []any{
			map[string]any{"name": "Bo", "activity": "Browsing"},
			map[string]any{"name": "Cy"},
			map[string]any{"name": "Di", "activity": "Idle"},
		},
	}, got)

	// The daemon fills in the missing activity.
	s := presence.Normalize(got)
	assert.Equal(t, presence.DefaultPeerActivity, s.Peers[1].Activity)
}

func TestBuildPayloadFlagsOverrideJSON(t *testing.T) {
	got, err := buildPayload(payloadInput{
		JSON:     `{"selfName":"Json","connectedCount":9,"avatarUrl":"http://a"}`,
		SelfName: ptr("Flag"),
		Users:    []string{"Bo:Idle"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Flag", got["selfName"])
	// A count already in the JSON is authoritative.
	assert.Equal(t, float64(9), got["connectedCount"])
	assert.Equal(t, "http://a", got["avatarUrl"])

	got, err = buildPayload(payloadInput{JSON: `{"connectedCount":9}`, Count: ptr(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got["connectedCount"])
}

func TestBuildPayloadSources(t *testing.T) {
	got, err := buildPayload(payloadInput{JSON: "-"}, strings.NewReader(`{"selfName":"Stdin"}`))
	require.NoError(t, err)
	assert.Equal(t, "Stdin", got["selfName"])

	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"selfName":"File"}`), 0644))
	got, err = buildPayload(payloadInput{JSON: "@" + path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "File", got["selfName"])

	got, err = buildPayload(payloadInput{JSON: "null"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildPayloadErrors(t *testing.T) {
	_, err := buildPayload(payloadInput{JSON: `[1,2]`}, nil)
	assert.Error(t, err)

	_, err = buildPayload(payloadInput{JSON: "@/does/not/exist.json"}, nil)
	assert.Error(t, err)
}
