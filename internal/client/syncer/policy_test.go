package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edmarkov/savesync/internal/client/models"
)

func TestResolvePolicy_AskMe(t *testing.T) {
	got := ResolvePolicy(models.ModeAskMe, base, base.Add(time.Hour), skew)
	assert.Equal(t, ActionAsk, got)
}

func TestResolvePolicy_AlwaysUpload(t *testing.T) {
	got := ResolvePolicy(models.ModeAlwaysUpload, base, base.Add(time.Hour), skew)
	assert.Equal(t, ActionUpload, got)
}

func TestResolvePolicy_AlwaysDownload(t *testing.T) {
	got := ResolvePolicy(models.ModeAlwaysDownload, base.Add(time.Hour), base, skew)
	assert.Equal(t, ActionDownload, got)
}

func TestResolvePolicy_NewestWins(t *testing.T) {
	tests := []struct {
		name   string
		local  time.Time
		server time.Time
		want   Action
	}{
		{"local clearly newer", base.Add(10 * time.Minute), base, ActionUpload},
		{"server clearly newer", base, base.Add(10 * time.Minute), ActionDownload},
		{"within skew falls back to ask", base.Add(30 * time.Second), base, ActionAsk},
		{"exactly at skew falls back to ask", base.Add(skew), base, ActionAsk},
		{"just past skew decides", base.Add(skew).Add(time.Second), base, ActionUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePolicy(models.ModeNewestWins, tt.local, tt.server, skew))
		})
	}
}

func TestResolvePolicy_Deterministic(t *testing.T) {
	first := ResolvePolicy(models.ModeNewestWins, base.Add(5*time.Minute), base, skew)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ResolvePolicy(models.ModeNewestWins, base.Add(5*time.Minute), base, skew))
	}
}
