package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTranslatedFeedIsCurrent(t *testing.T) {
	pull := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	samePull := pull
	laterPull := pull.Add(time.Minute)

	tests := []struct {
		name     string
		modified *time.Time
		lastPull *time.Time
		want     bool
	}{
		{"both nil", nil, nil, false},
		{"modified nil", nil, &pull, false},
		{"last pull nil", &pull, nil, false},
		{"matching", &pull, &samePull, true},
		{"parent pulled again", &pull, &laterPull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := &TranslatedFeed{Modified: tt.modified}
			assert.Equal(t, tt.want, tf.IsCurrent(tt.lastPull))
		})
	}
}

func TestNameNeedsAutoFill(t *testing.T) {
	assert.True(t, NameNeedsAutoFill(""))
	assert.True(t, NameNeedsAutoFill("Loading"))
	assert.True(t, NameNeedsAutoFill("Empty"))
	assert.False(t, NameNeedsAutoFill("Hacker News"))
	assert.False(t, NameNeedsAutoFill("loading"))
}
