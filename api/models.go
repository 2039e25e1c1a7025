package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/go-guard-companion/users"
)

// Visit statuses known to the client
const (
	StatusPending    = "PENDING"
	StatusApproved   = "APPROVED"
	StatusCheckedIn  = "CHECKED_IN"
	StatusCheckedOut = "CHECKED_OUT"
	StatusFlagged    = "FLAGGED"
)

// Person is a resident or host reference embedded in other records
type Person struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email,omitempty"`
	ResidentProfile *ResidentProfile `json:"residentProfile,omitempty"`
}

type ResidentProfile struct {
	UnitNumber string `json:"unitNumber,omitempty"`
}

// Unit returns the resident's unit number or "N/A"
func (p Person) Unit() string {
	if p.ResidentProfile == nil || p.ResidentProfile.UnitNumber == "" {
		return "N/A"
	}
	return p.ResidentProfile.UnitNumber
}

// Space is a parking space
type Space struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

const SpaceAvailable = "AVAILABLE"

// Available reports whether the space can be assigned
func (s Space) Available() bool {
	return strings.EqualFold(s.Status, SpaceAvailable)
}

type Visit struct {
	ID              string          `json:"id"`
	VisitorName     string          `json:"visitorName"`
	VisitorIDNumber string          `json:"visitorIdNumber,omitempty"`
	Status          string          `json:"status"`
	AccessCode      string          `json:"accessCode,omitempty"`
	QRCode          string          `json:"qrCode,omitempty"`
	LicensePlate    string          `json:"licensePlate,omitempty"`
	VehiclePlate    string          `json:"vehiclePlate,omitempty"`
	CompanionCount  int             `json:"companionCount,omitempty"`
	IsVIP           bool            `json:"isVip,omitempty"`
	Host            *Person         `json:"host,omitempty"`
	Resident        *Person         `json:"resident,omitempty"`
	Space           *Space          `json:"space,omitempty"`
	Images          json.RawMessage `json:"images,omitempty"`
	ValidFrom       *time.Time      `json:"validFrom,omitempty"`
	EntryTime       *time.Time      `json:"entryTime,omitempty"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
}

// Plate returns whichever plate field the backend filled in
func (v Visit) Plate() string {
	if v.LicensePlate != "" {
		return v.LicensePlate
	}
	return v.VehiclePlate
}

// HostName is the resident's name, falling back to the host's
func (v Visit) HostName() string {
	if v.Resident != nil && v.Resident.Name != "" {
		return v.Resident.Name
	}
	if v.Host != nil {
		return v.Host.Name
	}
	return ""
}

// ImageList normalises the images field, which arrives as an array, a JSON
// encoded array inside a string, or a single path.
func (v Visit) ImageList() []string {
	if len(v.Images) == 0 || string(v.Images) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(v.Images, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(v.Images, &single); err != nil || single == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(single), &list); err == nil {
		return list
	}
	return []string{single}
}

// DashboardStats are the counters shown on the guard's home screen
type DashboardStats struct {
	Today   int
	Pending int
	Flagged int
}

// Summarize counts visits created on now's calendar day together with the
// pending and flagged totals.
func Summarize(visits []Visit, now time.Time) DashboardStats {
	var stats DashboardStats
	y, m, d := now.Date()
	for _, v := range visits {
		if v.CreatedAt != nil {
			cy, cm, cd := v.CreatedAt.In(now.Location()).Date()
			if cy == y && cm == m && cd == d {
				stats.Today++
			}
		}
		switch v.Status {
		case StatusPending:
			stats.Pending++
		case StatusFlagged:
			stats.Flagged++
		}
	}
	return stats
}

// Expected returns the pending visits valid from now's calendar day
func Expected(visits []Visit, now time.Time) []Visit {
	y, m, d := now.Date()
	out := []Visit{}
	for _, v := range visits {
		if v.Status != StatusPending || v.ValidFrom == nil {
			continue
		}
		vy, vm, vd := v.ValidFrom.In(now.Location()).Date()
		if vy == y && vm == m && vd == d {
			out = append(out, v)
		}
	}
	return out
}

// Active returns the visits currently checked in
func Active(visits []Visit) []Visit {
	out := []Visit{}
	for _, v := range visits {
		if v.Status == StatusCheckedIn {
			out = append(out, v)
		}
	}
	return out
}

type Author struct {
	Name         string     `json:"name"`
	ProfileImage string     `json:"profileImage,omitempty"`
	Role         users.Role `json:"role,omitempty"`
}

type Comment struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Author    *Author    `json:"author,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Report is an incident filed by a guard
type Report struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Comments    []Comment  `json:"comments,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

type Device struct {
	Name string `json:"name"`
}

// HardwareEvent is a gate sensor reading
type HardwareEvent struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Device    *Device    `json:"device,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Label returns the event type with underscores replaced by spaces
func (e HardwareEvent) Label() string {
	return strings.ReplaceAll(e.Type, "_", " ")
}

// PlateVerification is the license plate recognition answer
type PlateVerification struct {
	Found bool   `json:"found"`
	Visit *Visit `json:"visit,omitempty"`
}

// TenantBranding is the public look of a tenant shown before sign in
type TenantBranding struct {
	Name    string `json:"name,omitempty"`
	LogoURL string `json:"logoUrl,omitempty"`
}
