package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/jrsteele09/go-guard-companion/internal/utils"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/pkg/errors"
)

// Server-to-client events
const (
	EventEmergencyAlert        = "emergencyAlert"
	EventVisitUpdate           = "visitUpdate"
	EventNewVisit              = "newVisit"
	EventStatusUpdate          = "statusUpdate"
	EventIncidentCreated       = "incidentCreated"
	EventIncidentStatusUpdated = "incidentStatusUpdated"
)

const unknown = "Unknown"

type Sender struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// EmergencyAlert is broadcast when a guard or resident raises an emergency
type EmergencyAlert struct {
	ID          string  `json:"id,omitempty"`
	Type        string  `json:"type"`
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	Sender      *Sender `json:"sender,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

func ParseEmergencyAlert(payload []byte) (EmergencyAlert, error) {
	var alert EmergencyAlert
	if err := json.Unmarshal(payload, &alert); err != nil {
		return alert, errors.Wrap(err, "[ParseEmergencyAlert] invalid payload")
	}
	return alert, nil
}

// Title is the heading of the acknowledgment dialog
func (a EmergencyAlert) Title() string {
	return "🚨 EMERGENCY ALERT 🚨"
}

// Message renders the alert as "MEDICAL EMERGENCY\nLocation: ...\nReported by: ...".
// Every underscore in the type becomes a space.
func (a EmergencyAlert) Message() string {
	kind := strings.ReplaceAll(strings.ToUpper(a.Type), "_", " ")
	var sender string
	if a.Sender != nil {
		sender = a.Sender.Name
	}
	return fmt.Sprintf("%s\nLocation: %s\nReported by: %s",
		kind,
		utils.FirstNonEmpty(a.Location, unknown),
		utils.FirstNonEmpty(sender, unknown))
}

// StatusUpdate is an entity update pushed by the backend. UserID is empty
// when the payload does not identify a user.
type StatusUpdate struct {
	UserID string
	Patch  users.Patch
}

// ParseStatusUpdate accepts {"userId":..,"updates":{..}}, {"user":{"id":..,..}}
// or a flat {"id":..,field:value} object.
func ParseStatusUpdate(payload []byte) (StatusUpdate, error) {
	if _, dataType, _, err := jsonparser.Get(payload); err != nil || dataType != jsonparser.Object {
		return StatusUpdate{}, errors.New("[ParseStatusUpdate] payload is not an object")
	}

	var update StatusUpdate
	update.UserID, _ = jsonparser.GetString(payload, "userId")
	userObject, userType, _, _ := jsonparser.Get(payload, "user")
	if update.UserID == "" && userType == jsonparser.Object {
		update.UserID, _ = jsonparser.GetString(userObject, "id")
	}

	if updates, dataType, _, err := jsonparser.Get(payload, "updates"); err == nil && dataType == jsonparser.Object {
		patch, err := users.ParsePatch(updates)
		if err != nil {
			return update, err
		}
		update.Patch = patch
		return update, nil
	}

	if userType == jsonparser.Object {
		patch, err := users.ParsePatch(userObject)
		if err != nil {
			return update, err
		}
		delete(patch, "id")
		update.Patch = patch
		return update, nil
	}

	if update.UserID == "" {
		update.UserID, _ = jsonparser.GetString(payload, "id")
	}
	patch, err := users.ParsePatch(payload)
	if err != nil {
		return update, err
	}
	delete(patch, "id")
	delete(patch, "userId")
	update.Patch = patch
	return update, nil
}

// TriggersRefresh reports whether event should cause a data refresh
func TriggersRefresh(event string) bool {
	switch event {
	case EventVisitUpdate, EventNewVisit, EventStatusUpdate, EventIncidentCreated, EventIncidentStatusUpdated:
		return true
	}
	return false
}
