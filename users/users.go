package users

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Role is the platform role carried by an account
type Role string

const (
	RoleSecurity Role = "SECURITY" // Gate guard, the primary user of this client
	RoleAdmin    Role = "ADMIN"    // Community administrator
	RoleResident Role = "RESIDENT" // Resident; hosts visitors, may not use this client
)

// DefaultAllowedRoles are the roles that may hold a session in the guard client
var DefaultAllowedRoles = []Role{RoleSecurity, RoleAdmin}

// SubscriptionStatus is the billing state of the user's community
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

const (
	defaultPrimaryColor   = "#4f46e5"
	defaultSecondaryColor = "#1e293b"
	defaultPlan           = "starter"
	elitePlan             = "elite"
)

// Branding is the tenant's look as delivered on the user record
type Branding struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	Logo           string `json:"logo,omitempty"`
}

type User struct {
	ID                       string             `json:"id"`
	Name                     string             `json:"name"`
	Email                    string             `json:"email"`
	Role                     Role               `json:"role"`
	IDNumber                 string             `json:"idNumber,omitempty"`
	Phone                    string             `json:"phone,omitempty"`
	BadgeNumber              string             `json:"badgeNumber,omitempty"`
	Gate                     string             `json:"gate,omitempty"`
	ProfileImage             string             `json:"profileImage,omitempty"`
	PushNotificationsEnabled *bool              `json:"pushNotificationsEnabled,omitempty"`
	PushToken                string             `json:"pushToken,omitempty"`
	Plan                     string             `json:"plan,omitempty"`
	SubscriptionStatus       SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	Branding                 *Branding          `json:"branding,omitempty"`
}

// Patch is a partial user record keyed by JSON field name, as sent by the
// backend in profile updates.
type Patch map[string]any

// ParsePatch decodes a JSON object into a Patch
func ParsePatch(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "[ParsePatch] invalid user patch")
	}
	return p, nil
}

// Merge returns a copy of u with the fields present in patch replaced. Fields
// absent from patch are left untouched, unknown keys are ignored.
func (u User) Merge(patch Patch) (User, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return u, errors.Wrap(err, "[Merge] marshal user")
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return u, errors.Wrap(err, "[Merge] unmarshal user")
	}
	for k, v := range patch {
		fields[k] = v
	}

	var merged User
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &merged,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return u, errors.Wrap(err, "[Merge] decoder")
	}
	if err := decoder.Decode(fields); err != nil {
		return u, errors.Wrap(err, "[Merge] decode patch")
	}
	return merged, nil
}

// IsAuthorized reports whether the user's role is one of allowed
func (u *User) IsAuthorized(allowed []Role) bool {
	for _, r := range allowed {
		if strings.EqualFold(string(u.Role), string(r)) {
			return true
		}
	}
	return false
}

// PushEnabled treats an unset preference as enabled
func (u *User) PushEnabled() bool {
	return u.PushNotificationsEnabled == nil || *u.PushNotificationsEnabled
}

// ServiceSuspended is true when the community subscription has been cancelled
func (u *User) ServiceSuspended() bool {
	return u.SubscriptionStatus == SubscriptionCancelled
}

// PaymentPending is true when some features may be limited by an overdue payment
func (u *User) PaymentPending() bool {
	return u.SubscriptionStatus == SubscriptionPastDue
}

// Theme is the branding resolved against the product defaults
type Theme struct {
	Primary   string
	Secondary string
	Logo      string
	Plan      string
	IsElite   bool
}

func (u *User) Theme() Theme {
	theme := Theme{Primary: defaultPrimaryColor, Secondary: defaultSecondaryColor, Plan: defaultPlan}
	if u.Branding != nil {
		if u.Branding.PrimaryColor != "" {
			theme.Primary = u.Branding.PrimaryColor
		}
		if u.Branding.SecondaryColor != "" {
			theme.Secondary = u.Branding.SecondaryColor
		}
		theme.Logo = u.Branding.Logo
	}
	if u.Plan != "" {
		theme.Plan = u.Plan
	}
	theme.IsElite = theme.Plan == elitePlan
	return theme
}

// RolesFromStrings converts configured role names
func RolesFromStrings(names []string) []Role {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, Role(strings.ToUpper(n)))
	}
	return roles
}
