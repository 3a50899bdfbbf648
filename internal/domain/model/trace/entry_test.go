package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	entry, err := NewEntry(12, KindDecision, map[string]interface{}{"choice": "left"}, 3)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID())
	assert.Equal(t, 12, entry.SectionNumber())
	assert.Equal(t, KindDecision, entry.Kind())
	assert.Equal(t, 3, entry.PreviousVersion())
	assert.WithinDuration(t, time.Now().UTC(), entry.Timestamp(), time.Minute)
}

func TestNewEntry_Invalid(t *testing.T) {
	_, err := NewEntry(12, Kind("correction"), nil, 0)
	assert.Error(t, err)

	_, err = NewEntry(12, KindDecision, nil, -1)
	assert.Error(t, err)
}

func TestEntry_PayloadIsCopied(t *testing.T) {
	payload := map[string]interface{}{"choice": "left"}
	entry, err := NewEntry(12, KindDecision, payload, 0)
	require.NoError(t, err)

	// Mutating the source or the returned copy never alters the entry
	payload["choice"] = "right"
	got := entry.Payload()
	assert.Equal(t, "left", got["choice"])
	got["choice"] = "up"
	assert.Equal(t, "left", entry.Payload()["choice"])
}

func TestRestore(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entry, err := Restore("01JB6X8Y2K9FQR4T3VWHGP5M2C", ts, 4, KindDiceRoll,
		map[string]interface{}{"dice_value": 9}, 2)
	require.NoError(t, err)

	assert.Equal(t, "01JB6X8Y2K9FQR4T3VWHGP5M2C", entry.ID())
	assert.Equal(t, ts, entry.Timestamp())
	assert.Equal(t, KindDiceRoll, entry.Kind())

	_, err = Restore("", ts, 4, KindDiceRoll, nil, 2)
	assert.Error(t, err)

	_, err = Restore("id", ts, 4, Kind("bogus"), nil, 2)
	assert.Error(t, err)
}

func TestKind_IsValid(t *testing.T) {
	assert.True(t, KindDecision.IsValid())
	assert.True(t, KindDiceRoll.IsValid())
	assert.True(t, KindStatUpdate.IsValid())
	assert.False(t, Kind("edit").IsValid())
}
