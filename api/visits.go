package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/internal/utils"
	pkgerrors "github.com/pkg/errors"
)

var accessCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

func pathEscape(segment string) string {
	return url.PathEscape(segment)
}

// VisitFilter narrows the visit list. Dates are passed through as given.
type VisitFilter struct {
	PageRequest
	StartDate string
	EndDate   string
	Status    string
}

// Visits lists visits, newest first
func (c *Client) Visits(ctx context.Context, filter VisitFilter) (Paginated[Visit], error) {
	query := filter.values()
	if filter.StartDate != "" {
		query.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("endDate", filter.EndDate)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	body, err := c.send(ctx, request{method: http.MethodGet, path: "/visits", query: query})
	if err != nil {
		return Paginated[Visit]{}, err
	}
	return decodeList[Visit](body)
}

// VisitStats returns the backend's visit counters as delivered
func (c *Client) VisitStats(ctx context.Context) (map[string]any, error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: "/visits/stats"})
	if err != nil {
		return nil, err
	}
	stats := map[string]any{}
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, pkgerrors.Wrap(err, "[VisitStats] decode")
	}
	return stats, nil
}

// CheckIn validates a scanned QR code. The backend checks the visit in, or out
// when it is already inside.
func (c *Client) CheckIn(ctx context.Context, qrCode string) (Visit, error) {
	qrCode = strings.TrimSpace(qrCode)
	if qrCode == "" {
		return Visit{}, errors.Wrapf(errors.ErrInvalidRequest, "[CheckIn] qr code is required")
	}
	var visit Visit
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/visits/check-in",
		body:   map[string]string{"qrCode": qrCode},
	}, &visit)
	return visit, err
}

// CheckInByCode is CheckIn for the 4 digit access code typed by the guard
func (c *Client) CheckInByCode(ctx context.Context, accessCode string) (Visit, error) {
	accessCode = strings.TrimSpace(accessCode)
	if !accessCodePattern.MatchString(accessCode) {
		return Visit{}, errors.ErrInvalidAccessCode
	}
	var visit Visit
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/visits/check-in-code",
		body:   map[string]string{"accessCode": accessCode},
	}, &visit)
	return visit, err
}

// ManualEntry is a walk-in visitor registered at the gate
type ManualEntry struct {
	VisitorName     string
	VisitorIDNumber string
	LicensePlate    string
	Companions      int
	SpaceID         string
	ResidentID      string
	Images          []string
}

type manualEntryBody struct {
	VisitorName     string  `json:"visitorName"`
	VisitorIDNumber string  `json:"visitorIdNumber"`
	LicensePlate    *string `json:"licensePlate,omitempty"`
	VehiclePlate    *string `json:"vehiclePlate,omitempty"`
	CompanionCount  int     `json:"companionCount"`
	Companions      int     `json:"companions"`
	SpaceID         *string `json:"spaceId,omitempty"`
	Images          string  `json:"images"`
	HostID          *string `json:"hostId,omitempty"`
	ResidentID      *string `json:"residentId,omitempty"`
}

// MarshalJSON writes the wire form, which duplicates the plate, companion and
// resident fields under both of the backend's names and sends images as a JSON
// encoded string.
func (m ManualEntry) MarshalJSON() ([]byte, error) {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return json.Marshal(manualEntryBody{
		VisitorName:     m.VisitorName,
		VisitorIDNumber: m.VisitorIDNumber,
		LicensePlate:    utils.PtrIfSet(m.LicensePlate),
		VehiclePlate:    utils.PtrIfSet(m.LicensePlate),
		CompanionCount:  m.Companions,
		Companions:      m.Companions,
		SpaceID:         utils.PtrIfSet(m.SpaceID),
		Images:          string(encoded),
		HostID:          utils.PtrIfSet(m.ResidentID),
		ResidentID:      utils.PtrIfSet(m.ResidentID),
	})
}

// ManualCheckIn registers and checks in a walk-in visitor. The returned visit
// reports IsVIP for visitors whose vehicle must not be searched.
func (c *Client) ManualCheckIn(ctx context.Context, entry ManualEntry) (Visit, error) {
	entry.VisitorName = strings.TrimSpace(entry.VisitorName)
	entry.VisitorIDNumber = strings.TrimSpace(entry.VisitorIDNumber)
	if entry.VisitorName == "" || entry.VisitorIDNumber == "" {
		return Visit{}, errors.Wrapf(errors.ErrInvalidRequest, "[ManualCheckIn] visitor name and id are required")
	}
	if entry.Companions < 0 {
		entry.Companions = 0
	}
	var visit Visit
	err := c.do(ctx, request{method: http.MethodPost, path: "/visits/manual-checkin", body: entry}, &visit)
	return visit, err
}

// CheckOut records the visitor leaving
func (c *Client) CheckOut(ctx context.Context, visitID string) (Visit, error) {
	if visitID == "" {
		return Visit{}, errors.Wrapf(errors.ErrInvalidRequest, "[CheckOut] visit id is required")
	}
	var visit Visit
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/visits/" + pathEscape(visitID) + "/checkout",
		body:   struct{}{},
	}, &visit)
	return visit, err
}

// VerifyPlate looks up a license plate against today's visits
func (c *Client) VerifyPlate(ctx context.Context, plate string) (PlateVerification, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return PlateVerification{}, errors.Wrapf(errors.ErrInvalidRequest, "[VerifyPlate] plate is required")
	}
	var result PlateVerification
	err := c.do(ctx, request{method: http.MethodGet, path: "/lpr/verify/" + pathEscape(plate)}, &result)
	return result, err
}
