package presence

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Payload keys understood by Normalize. Anything else is ignored.
const (
	KeySelfName       = "selfName"
	KeySelfActivity   = "selfActivity"
	KeyConnectedCount = "connectedCount"
	KeyUsers          = "users"
	KeyAvatarURL      = "avatarUrl"
	KeyPeerName       = "name"
	KeyPeerActivity   = "activity"
)

// Normalize converts an untyped payload into a State stamped with the
// current time. It never fails: bad or missing values become defaults.
func Normalize(raw map[string]any) State {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with an explicit timestamp.
func NormalizeAt(raw map[string]any, now time.Time) State {
	return State{
		SelfName:       stringOr(raw[KeySelfName], DefaultSelfName),
		SelfActivity:   stringOr(raw[KeySelfActivity], DefaultSelfActivity),
		ConnectedCount: count(raw[KeyConnectedCount]),
		Peers:          peers(raw[KeyUsers]),
		AvatarURL:      stringOr(raw[KeyAvatarURL], ""),
		UpdatedAt:      now,
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// count coerces any numeric representation to a non-negative int.
func count(v any) int {
	var f float64
	switch n := v.(type) {
	case int:
		return clamp(int64(n))
	case int8:
		return clamp(int64(n))
	case int16:
		return clamp(int64(n))
	case int32:
		return clamp(int64(n))
	case int64:
		return clamp(n)
	case uint:
		return clampUint(uint64(n))
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return clampUint(uint64(n))
	case uint64:
		return clampUint(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return clamp(i)
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func clamp(n int64) int {
	if n <= 0 {
		return 0
	}
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func clampUint(n uint64) int {
	if n >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// peers extracts map elements from a heterogeneous sequence. Non-map
// elements are dropped, not replaced.
func peers(v any) []Peer {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []map[string]any:
		items = make([]any, len(list))
		for i, m := range list {
			items[i] = m
		}
	default:
		return nil
	}

	out := make([]Peer, 0, len(items))
	for _, item := range items {
		var name, activity any
		switch m := item.(type) {
		case map[string]any:
			if m == nil {
				continue
			}
			name, activity = m[KeyPeerName], m[KeyPeerActivity]
		case map[any]any:
			if m == nil {
				continue
			}
			name, activity = m[KeyPeerName], m[KeyPeerActivity]
		default:
			continue
		}
		out = append(out, Peer{
			Name:     textOr(name, DefaultPeerName),
			Activity: textOr(activity, DefaultPeerActivity),
		})
	}
	return out
}

// textOr stringifies any present value; only nil falls back to the default.
func textOr(v any, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}
