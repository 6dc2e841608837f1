package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableTransitions(t *testing.T) {
	tests := []struct {
		name     string
		current  []Status
		expected []Status
	}{
		{"nil history", nil, []Status{StatusApplied}},
		{"empty history", []Status{}, []Status{StatusApplied}},
		{"applied", []Status{StatusApplied}, []Status{StatusRejected, StatusScreen}},
		{"applied then rejected", []Status{StatusApplied, StatusRejected}, []Status{}},
		{"applied and screen", []Status{StatusApplied, StatusScreen}, []Status{StatusInterview}},
		{"screen and interview", []Status{StatusScreen, StatusInterview}, []Status{StatusOffer, StatusNoOffer, StatusWithdrawn}},
		{"interview and offer", []Status{StatusInterview, StatusOffer}, []Status{}},
		{"interview wins regardless of order", []Status{StatusInterview, StatusApplied, StatusScreen}, []Status{StatusOffer, StatusNoOffer, StatusWithdrawn}},
		{"withdrawn after interview", []Status{StatusApplied, StatusScreen, StatusInterview, StatusWithdrawn}, []Status{}},
		{"duplicates ignored", []Status{StatusApplied, StatusApplied, StatusApplied}, []Status{StatusRejected, StatusScreen}},
		{"rejected alone", []Status{StatusRejected}, []Status{}},
		{"offer alone", []Status{StatusOffer}, []Status{}},
		{"withdrawn alone", []Status{StatusWithdrawn}, []Status{}},
		{"no offer alone", []Status{StatusNoOffer}, []Status{}},
		{"unrecognized status", []Status{Status("Ghosted")}, []Status{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AvailableTransitions(tt.current)
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAvailableTransitions_TerminalStatusClosesApplication(t *testing.T) {
	for _, terminal := range []Status{StatusRejected, StatusOffer, StatusWithdrawn, StatusNoOffer} {
		history := []Status{StatusApplied, StatusScreen, StatusInterview, terminal}
		assert.Empty(t, AvailableTransitions(history), "history ending in %s", terminal)
		assert.True(t, IsTerminal(terminal))
	}
	for _, open := range []Status{StatusApplied, StatusScreen, StatusInterview} {
		assert.False(t, IsTerminal(open))
	}
}

func TestAvailableTransitions_NeverOffersAppliedOnceStarted(t *testing.T) {
	for _, st := range All() {
		for _, other := range All() {
			result := AvailableTransitions([]Status{st, other})
			assert.NotContains(t, result, StatusApplied, "history %v, %v", st, other)
			for _, next := range result {
				assert.True(t, next.Valid())
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(nil, StatusApplied))
	assert.False(t, CanTransition(nil, StatusScreen))
	assert.True(t, CanTransition([]Status{StatusApplied}, StatusScreen))
	assert.False(t, CanTransition([]Status{StatusApplied, StatusScreen}, StatusRejected))
	assert.True(t, CanTransition([]Status{StatusApplied, StatusScreen, StatusInterview}, StatusWithdrawn))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{"Applied", StatusApplied, false},
		{"interview", StatusInterview, false},
		{"  NOOFFER ", StatusNoOffer, false},
		{"Withdrawn", StatusWithdrawn, false},
		{"Hired", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			st, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, st)
		})
	}
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Status Status `json:"status"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"status":"screen"}`), &payload))
	assert.Equal(t, StatusScreen, payload.Status)

	err := json.Unmarshal([]byte(`{"status":"Hired"}`), &payload)
	assert.Error(t, err)
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 7)
	for _, st := range all {
		assert.True(t, st.Valid())
	}
	assert.False(t, Status("Ghosted").Valid())
}
