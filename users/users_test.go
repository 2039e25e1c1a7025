package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-guard-companion/internal/utils"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/stretchr/testify/require"
)

func testGuard() users.User {
	return users.User{
		ID:                       "user-1",
		Name:                     "Ana Guard",
		Email:                    "guard@site.com",
		Role:                     users.RoleSecurity,
		BadgeNumber:              "B-17",
		Gate:                     "North",
		PushNotificationsEnabled: utils.Ptr(true),
		Branding:                 &users.Branding{PrimaryColor: "#000000"},
	}
}

func TestMergeOnlyTouchesGivenFields(t *testing.T) {
	u := testGuard()

	merged, err := u.Merge(users.Patch{"pushNotificationsEnabled": false, "gate": "South"})
	require.NoError(t, err)

	require.False(t, *merged.PushNotificationsEnabled)
	require.Equal(t, "South", merged.Gate)

	merged.PushNotificationsEnabled = u.PushNotificationsEnabled
	merged.Gate = u.Gate
	require.Equal(t, u, merged)
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	u := testGuard()
	_, err := u.Merge(users.Patch{"name": "Someone Else"})
	require.NoError(t, err)
	require.Equal(t, "Ana Guard", u.Name)
}

func TestMergeNestedAndUnknownFields(t *testing.T) {
	u := testGuard()
	patch, err := users.ParsePatch([]byte(`{"branding":{"logo":"/logo.png"},"lastSeen":"now"}`))
	require.NoError(t, err)

	merged, err := u.Merge(patch)
	require.NoError(t, err)
	require.Equal(t, &users.Branding{Logo: "/logo.png"}, merged.Branding)
	require.Equal(t, u.Email, merged.Email)
}

func TestMergedRecordRoundTripsThroughJSON(t *testing.T) {
	merged, err := testGuard().Merge(users.Patch{"pushToken": "ExponentPushToken[abc]"})
	require.NoError(t, err)

	raw, err := json.Marshal(merged)
	require.NoError(t, err)
	var decoded users.User
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, merged, decoded)
}

func TestParsePatchRejectsNonObject(t *testing.T) {
	_, err := users.ParsePatch([]byte(`[1,2]`))
	require.Error(t, err)
}

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		role users.Role
		want bool
	}{
		{users.RoleSecurity, true},
		{users.RoleAdmin, true},
		{"admin", true},
		{users.RoleResident, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			u := users.User{Role: tt.role}
			require.Equal(t, tt.want, u.IsAuthorized(users.DefaultAllowedRoles))
		})
	}
}

func TestTheme(t *testing.T) {
	u := users.User{}
	require.Equal(t, users.Theme{Primary: "#4f46e5", Secondary: "#1e293b", Plan: "starter"}, u.Theme())

	u = users.User{Plan: "elite", Branding: &users.Branding{SecondaryColor: "#111111", Logo: "l.png"}}
	theme := u.Theme()
	require.True(t, theme.IsElite)
	require.Equal(t, "#4f46e5", theme.Primary)
	require.Equal(t, "#111111", theme.Secondary)
	require.Equal(t, "l.png", theme.Logo)
}

func TestSubscriptionState(t *testing.T) {
	u := users.User{SubscriptionStatus: users.SubscriptionCancelled}
	require.True(t, u.ServiceSuspended())
	u.SubscriptionStatus = users.SubscriptionPastDue
	require.True(t, u.PaymentPending())
	require.False(t, u.ServiceSuspended())
}

func TestPushEnabledDefaultsOn(t *testing.T) {
	u := users.User{}
	require.True(t, u.PushEnabled())
	u.PushNotificationsEnabled = utils.Ptr(false)
	require.False(t, u.PushEnabled())
}
