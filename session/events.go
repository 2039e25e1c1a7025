package session

import (
	"context"

	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/rs/zerolog/log"
)

// handler returns the event handler for connection generation gen. Events from
// a superseded connection, or arriving with no session, are dropped.
func (m *Manager) handler(gen uint64) realtime.Handler {
	return func(event string, payload []byte) {
		if !m.live(gen) {
			return
		}
		switch event {
		case realtime.EventEmergencyAlert:
			m.raiseAlert(payload)
		case realtime.EventStatusUpdate:
			m.applyStatusUpdate(payload)
			if m.live(gen) {
				m.RefreshData()
			}
		default:
			if realtime.TriggersRefresh(event) {
				m.RefreshData()
			}
		}
	}
}

func (m *Manager) live(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.connGen == gen
}

// raiseAlert vibrates on devices that can and shows the alert until the guard
// acknowledges it. The alert is not debounced.
func (m *Manager) raiseAlert(payload []byte) {
	alert, err := realtime.ParseEmergencyAlert(payload)
	if err != nil {
		log.Err(err).Msg("Dropping malformed emergency alert")
		return
	}
	log.Warn().Str("type", alert.Type).Str("location", alert.Location).Msg("Emergency alert received")
	if m.native {
		m.alerter.Vibrate()
	}
	go m.alerter.Alert(alert)
}

// applyStatusUpdate merges an update addressed to the signed-in user into the
// session
func (m *Manager) applyStatusUpdate(payload []byte) {
	update, err := realtime.ParseStatusUpdate(payload)
	if err != nil {
		log.Err(err).Msg("Ignoring malformed status update")
		return
	}
	s, ok := m.Current()
	if !ok || update.UserID == "" || update.UserID != s.User.ID || len(update.Patch) == 0 {
		return
	}
	if err := m.UpdateUser(context.Background(), update.Patch); err != nil {
		log.Err(err).Msg("Failed to apply status update")
	}
}
