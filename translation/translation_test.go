package translation_test

import (
	"context"
	"errors"
	"testing"

	guarderrors "github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/storage/repofake"
	"github.com/jrsteele09/go-guard-companion/translation"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		locale string
		want   translation.Language
	}{
		{"es_CR.UTF-8", translation.Spanish},
		{"es-MX", translation.Spanish},
		{"en-GB", translation.English},
		{"fr_FR.UTF-8", translation.English},
		{"C", translation.English},
		{"", translation.English},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			require.Equal(t, tt.want, translation.Match(tt.locale))
		})
	}
}

func TestPersistedLanguageWinsOverLocale(t *testing.T) {
	store := repofake.NewFakeStorageRepo()
	require.NoError(t, store.Set(context.Background(), "cosevi_app_lang", "es"))

	tr, err := translation.New(context.Background(), store, "en_US.UTF-8")
	require.NoError(t, err)
	require.Equal(t, translation.Spanish, tr.Language())
	require.Equal(t, "Inicio", tr.T("tabHome"))
}

func TestInvalidPersistedLanguageIsIgnored(t *testing.T) {
	store := repofake.NewFakeStorageRepo()
	require.NoError(t, store.Set(context.Background(), "cosevi_app_lang", "de"))

	tr, err := translation.New(context.Background(), store, "es_CR")
	require.NoError(t, err)
	require.Equal(t, translation.Spanish, tr.Language())
}

func TestUnreadableStorageFallsBackToLocale(t *testing.T) {
	store := repofake.NewFakeStorageRepo()
	store.FailWith(repofake.OpGet, errors.New("locked"))

	tr, err := translation.New(context.Background(), store, "es")
	require.NoError(t, err)
	require.Equal(t, translation.Spanish, tr.Language())
}

func TestSetLanguage(t *testing.T) {
	store := repofake.NewFakeStorageRepo()
	tr, err := translation.New(context.Background(), store, "en")
	require.NoError(t, err)

	require.NoError(t, tr.SetLanguage(context.Background(), translation.Spanish))
	require.Equal(t, translation.Spanish, tr.Language())
	require.Equal(t, "es", store.Snapshot()["cosevi_app_lang"])

	require.ErrorIs(t, tr.SetLanguage(context.Background(), "de"), guarderrors.ErrUnsupported)

	store.FailWith(repofake.OpSet, errors.New("disk full"))
	require.Error(t, tr.SetLanguage(context.Background(), translation.English))
	require.Equal(t, translation.Spanish, tr.Language())
}

func TestLookupFallbacks(t *testing.T) {
	store := repofake.NewFakeStorageRepo()
	tr, err := translation.New(context.Background(), store, "es")
	require.NoError(t, err)

	require.Equal(t, "Cerrar Sesión", tr.T("signOut"))
	require.Equal(t, "Visitor", tr.T("visitor"), "missing Spanish entry falls back to English")
	require.Equal(t, "noSuchKey", tr.T("noSuchKey"))
	require.Equal(t, "Alerta de FUEGO activa", tr.Format("alertActive", map[string]string{"type": "FUEGO"}))
}
