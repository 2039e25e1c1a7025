package realtime_test

import (
	"testing"

	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/stretchr/testify/require"
)

func TestEmergencyAlertMessage(t *testing.T) {
	alert, err := realtime.ParseEmergencyAlert([]byte(`{"id":"e-1","type":"medical_emergency","location":"Main Gate","sender":{"id":"u-9","name":"Luis"}}`))
	require.NoError(t, err)
	require.Equal(t, "MEDICAL EMERGENCY\nLocation: Main Gate\nReported by: Luis", alert.Message())
	require.Contains(t, alert.Title(), "EMERGENCY ALERT")
}

func TestEmergencyAlertMessageDefaults(t *testing.T) {
	alert, err := realtime.ParseEmergencyAlert([]byte(`{"type":"fire"}`))
	require.NoError(t, err)
	require.Equal(t, "FIRE\nLocation: Unknown\nReported by: Unknown", alert.Message())

	alert, err = realtime.ParseEmergencyAlert([]byte(`{"type":"gas_leak_alarm","location":"Tower A"}`))
	require.NoError(t, err)
	require.Equal(t, "GAS LEAK ALARM\nLocation: Tower A\nReported by: Unknown", alert.Message())

	_, err = realtime.ParseEmergencyAlert([]byte(`not json`))
	require.Error(t, err)
}

func TestParseStatusUpdate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    realtime.StatusUpdate
	}{
		{
			name:    "userId with updates",
			payload: `{"userId":"user-1","updates":{"pushNotificationsEnabled":false}}`,
			want:    realtime.StatusUpdate{UserID: "user-1", Patch: users.Patch{"pushNotificationsEnabled": false}},
		},
		{
			name:    "embedded user",
			payload: `{"type":"profile","user":{"id":"user-1","gate":"South"}}`,
			want:    realtime.StatusUpdate{UserID: "user-1", Patch: users.Patch{"gate": "South"}},
		},
		{
			name:    "flat",
			payload: `{"id":"user-1","pushNotificationsEnabled":false}`,
			want:    realtime.StatusUpdate{UserID: "user-1", Patch: users.Patch{"pushNotificationsEnabled": false}},
		},
		{
			name:    "no user",
			payload: `{"status":"CHECKED_IN"}`,
			want:    realtime.StatusUpdate{Patch: users.Patch{"status": "CHECKED_IN"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := realtime.ParseStatusUpdate([]byte(tt.payload))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatusUpdateRejectsNonObject(t *testing.T) {
	_, err := realtime.ParseStatusUpdate([]byte(`"CHECKED_IN"`))
	require.Error(t, err)
	_, err = realtime.ParseStatusUpdate(nil)
	require.Error(t, err)
}

func TestTriggersRefresh(t *testing.T) {
	for _, e := range []string{
		realtime.EventVisitUpdate, realtime.EventNewVisit, realtime.EventStatusUpdate,
		realtime.EventIncidentCreated, realtime.EventIncidentStatusUpdated,
	} {
		require.True(t, realtime.TriggersRefresh(e), e)
	}
	require.False(t, realtime.TriggersRefresh(realtime.EventEmergencyAlert))
	require.False(t, realtime.TriggersRefresh("connect"))
}
