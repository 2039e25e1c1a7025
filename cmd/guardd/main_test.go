package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/storage/filestore"
	"github.com/jrsteele09/go-guard-companion/storage/redisstore"
	"github.com/jrsteele09/go-guard-companion/storage/repofake"
	"github.com/jrsteele09/go-guard-companion/translation"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("API_URL", "http://env:3000/api")
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("GUARD_PASSWORD", "from-env")

	opts := parseFlags([]string{"--api-url", "https://flag.example.com/api", "--email", "guard@site.com", "--logout-on-exit"})

	require.Equal(t, "guard@site.com", opts.email)
	require.Equal(t, "from-env", opts.password)
	require.True(t, opts.logoutOnExit)
	require.Equal(t, "https://flag.example.com/api", os.Getenv("API_URL"))
	require.Equal(t, "file", os.Getenv("STORAGE_BACKEND"))
	require.Equal(t, "https://flag.example.com", config.New().GetSocketURL())
}

func TestNewStore(t *testing.T) {
	t.Setenv("DATA_FOLDER", t.TempDir())

	t.Setenv("STORAGE_BACKEND", "file")
	store, err := newStore(config.New())
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, store)

	t.Setenv("STORAGE_BACKEND", "redis")
	store, err = newStore(config.New())
	require.NoError(t, err)
	require.IsType(t, &redisstore.Store{}, store)

	t.Setenv("STORAGE_BACKEND", "s3")
	_, err = newStore(config.New())
	require.Error(t, err)
}

func TestConsoleAlerterWaitsForAcknowledgment(t *testing.T) {
	tr, err := translation.New(context.Background(), repofake.NewFakeStorageRepo(), "en")
	require.NoError(t, err)
	var out bytes.Buffer
	alerter := newConsoleAlerter(strings.NewReader("\n"), &out, tr)

	done := make(chan struct{})
	go func() {
		alerter.Alert(realtime.EmergencyAlert{Type: "FIRE", Location: "Lobby"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("alert did not return after Enter")
	}
	require.Contains(t, out.String(), "EMERGENCY ALERT")
	require.Contains(t, out.String(), "FIRE\nLocation: Lobby\nReported by: Unknown")
	require.Contains(t, out.String(), "Press Enter to acknowledge")
}

func TestSubscriptionNotice(t *testing.T) {
	tr, err := translation.New(context.Background(), repofake.NewFakeStorageRepo(), "es")
	require.NoError(t, err)

	_, ok := subscriptionNotice(users.User{SubscriptionStatus: users.SubscriptionActive}, tr)
	require.False(t, ok)
	require.True(t, showAccount(users.User{SubscriptionStatus: users.SubscriptionActive}, tr))

	notice, ok := subscriptionNotice(users.User{SubscriptionStatus: users.SubscriptionPastDue}, tr)
	require.True(t, ok)
	require.Contains(t, notice, "Pago Pendiente")
	require.True(t, showAccount(users.User{SubscriptionStatus: users.SubscriptionPastDue}, tr))

	notice, ok = subscriptionNotice(users.User{SubscriptionStatus: users.SubscriptionCancelled}, tr)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(notice, "Servicio Suspendido\n"))
	require.False(t, showAccount(users.User{SubscriptionStatus: users.SubscriptionCancelled}, tr))
}
