package orchestrator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletStatus_Ready(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status WalletStatus
		want   bool
	}{
		{name: "all true", status: WalletStatus{Initialized: true, Unlocked: true, Synced: true}, want: true},
		{name: "not synced", status: WalletStatus{Initialized: true, Unlocked: true, Synced: false}, want: false},
		{name: "locked", status: WalletStatus{Initialized: true, Unlocked: false, Synced: true}, want: false},
		{name: "not initialized", status: WalletStatus{Initialized: false, Unlocked: true, Synced: true}, want: false},
		{name: "zero value", status: WalletStatus{}, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.status.Ready())
		})
	}
}

func TestPhases_Order(t *testing.T) {
	t.Parallel()

	require.Len(t, Phases, 11)
	assert.Equal(t, PhaseWaitService, Phases[0])
	assert.Equal(t, PhaseSettle, Phases[len(Phases)-1])

	seen := make(map[Phase]bool, len(Phases))
	for _, p := range Phases {
		assert.False(t, seen[p], "duplicate phase %q", p)
		seen[p] = true
	}
}

func TestBootstrapResult_JSONShape(t *testing.T) {
	t.Parallel()

	r := BootstrapResult{
		Status: StatusOK,
		RunID:  "run-1",
		Pubkey: "02abc",
		Phases: []PhaseResult{
			{Name: PhaseWaitService, Status: StatusOK, Attempts: 3, DurationMs: 12},
			{Name: PhaseSettle, Status: StatusOK},
		},
	}

	data, err := json.Marshal(&r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "run-1", got["runId"])
	assert.Equal(t, "02abc", got["pubkey"])

	phases, ok := got["phases"].([]any)
	require.True(t, ok)
	require.Len(t, phases, 2)

	first, ok := phases[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wait_service", first["name"])
	assert.Equal(t, float64(3), first["attempts"])

	// "attempts" is omitted for phases that do not poll.
	last, ok := phases[1].(map[string]any)
	require.True(t, ok)
	_, hasAttempts := last["attempts"]
	assert.False(t, hasAttempts)
}

func TestServerInfo_Decode(t *testing.T) {
	t.Parallel()

	var info ServerInfo
	require.NoError(t, json.Unmarshal([]byte(`{"pubkey":"02deadbeef","network":"regtest"}`), &info))
	assert.Equal(t, "02deadbeef", info.Pubkey)
}
