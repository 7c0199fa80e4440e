package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type keyAt struct {
	key   string
	after time.Duration
}

func feed(f *Framer, keys []keyAt) []string {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var codes []string
	for _, k := range keys {
		at = at.Add(k.after)
		if code, ok := f.Key(k.key, at); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

func burst(code string, step time.Duration) []keyAt {
	keys := make([]keyAt, 0, len(code)+1)
	for _, r := range code {
		keys = append(keys, keyAt{string(r), step})
	}
	return append(keys, keyAt{KeyEnter, step})
}

func TestFramer(t *testing.T) {
	tests := []struct {
		name string
		keys []keyAt
		want []string
	}{
		{
			name: "fast burst flushes on enter",
			keys: burst("ACC-123", 10*time.Millisecond),
			want: []string{"ACC-123"},
		},
		{
			name: "slow typing never accumulates",
			keys: burst("ACC-123", 150*time.Millisecond),
			want: nil,
		},
		{
			name: "single character is not a code",
			keys: burst("A", 5*time.Millisecond),
			want: nil,
		},
		{
			name: "named keys ignored but extend the burst",
			keys: []keyAt{
				{"A", 0}, {"Shift", 60 * time.Millisecond}, {"B", 60 * time.Millisecond}, {KeyEnter, 10 * time.Millisecond},
			},
			want: []string{"AB"},
		},
		{
			name: "pause resets buffer",
			keys: []keyAt{
				{"X", 0}, {"Y", 10 * time.Millisecond},
				{"1", 500 * time.Millisecond}, {"2", 10 * time.Millisecond}, {KeyEnter, 10 * time.Millisecond},
			},
			want: []string{"12"},
		},
		{
			name: "two scans back to back",
			keys: append(burst("AB", 5*time.Millisecond), burst("CD", 5*time.Millisecond)...),
			want: []string{"AB", "CD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, feed(NewFramer(DefaultGap), tt.keys))
		})
	}
}

func TestFramer_DefaultGap(t *testing.T) {
	f := NewFramer(0)
	assert.Equal(t, DefaultGap, f.gap)
}
