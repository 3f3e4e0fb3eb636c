package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaemonArgs(t *testing.T) {
	tests := []struct {
		name string
		args daemonArgs
		want []string
	}{
		{"defaults", daemonArgs{webPort: -1}, nil},
		{"dynamic web port", daemonArgs{webPort: 0}, []string{"--web-port", "0"}},
		{"redis", daemonArgs{webPort: -1, redisURL: "redis://localhost:6379"}, []string{"--redis-url", "redis://localhost:6379"}},
		{"both", daemonArgs{webPort: 8080, redisURL: "redis://r"}, []string{"--web-port", "8080", "--redis-url", "redis://r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.args.argv())
		})
	}
}

func TestPoll(t *testing.T) {
	calls := 0
	assert.True(t, poll(time.Second, func() bool {
		calls++
		return calls == 3
	}))
	assert.Equal(t, 3, calls)

	assert.False(t, poll(250*time.Millisecond, func() bool { return false }))
}
