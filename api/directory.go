package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
)

// Residents lists the community's residents for host selection
func (c *Client) Residents(ctx context.Context) ([]Person, error) {
	var residents []Person
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/residents"}, &residents)
	return residents, err
}

// Spaces lists parking spaces, restricted to one resident when residentID is set
func (c *Client) Spaces(ctx context.Context, residentID string) ([]Space, error) {
	req := request{method: http.MethodGet, path: "/spaces"}
	if residentID != "" {
		req.query = url.Values{"residentId": {residentID}}
	}
	var spaces []Space
	err := c.do(ctx, req, &spaces)
	return spaces, err
}

// AvailableSpaces filters spaces down to those that can be assigned
func AvailableSpaces(spaces []Space) []Space {
	out := []Space{}
	for _, s := range spaces {
		if s.Available() {
			out = append(out, s)
		}
	}
	return out
}

// HardwareEvents lists recent gate sensor events
func (c *Client) HardwareEvents(ctx context.Context) ([]HardwareEvent, error) {
	var events []HardwareEvent
	err := c.do(ctx, request{method: http.MethodGet, path: "/hardware/events"}, &events)
	return events, err
}

// Emergency types offered at the gate
const (
	EmergencyMedical  = "MEDICAL"
	EmergencyFire     = "FIRE"
	EmergencySecurity = "SECURITY"
	EmergencyIntruder = "INTRUDER"
)

// DefaultEmergencyLocation is used when the guard gives no location
const DefaultEmergencyLocation = "Main Gate"

type EmergencyRequest struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
}

// CreateEmergency raises an alert that the backend broadcasts as emergencyAlert
func (c *Client) CreateEmergency(ctx context.Context, req EmergencyRequest) error {
	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if req.Type == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[CreateEmergency] type is required")
	}
	if strings.TrimSpace(req.Location) == "" {
		req.Location = DefaultEmergencyLocation
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/emergencies", body: req}, nil)
}
