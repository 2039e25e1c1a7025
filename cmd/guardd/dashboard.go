package main

import (
	"context"
	"time"

	"github.com/jrsteele09/go-guard-companion/api"
	"github.com/jrsteele09/go-guard-companion/translation"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/rs/zerolog/log"
)

// dashboard refetches the guard's home screen figures on every refresh
type dashboard struct {
	client *api.Client
	tr     *translation.Translator
}

func newDashboard(client *api.Client, tr *translation.Translator) *dashboard {
	return &dashboard{client: client, tr: tr}
}

func (d *dashboard) report(ctx context.Context) {
	stats, err := d.client.VisitStats(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to fetch visit stats")
	} else {
		log.Info().Interface("stats", stats).Msg("Visit stats")
	}

	page, err := d.client.Visits(ctx, api.VisitFilter{PageRequest: api.PageRequest{Limit: 50}})
	if err != nil {
		log.Err(err).Msg("Failed to fetch dashboard data")
		return
	}
	summary := api.Summarize(page.Data, time.Now())
	log.Info().
		Int(d.tr.T("today"), summary.Today).
		Int(d.tr.T("statusPending"), summary.Pending).
		Int(d.tr.T("flagged"), summary.Flagged).
		Int(d.tr.T("activeVisitors"), len(api.Active(page.Data))).
		Msg(d.tr.T("recentActivity"))
}

// subscriptionNotice is the banner shown over the app for a community whose
// subscription is not active
func subscriptionNotice(user users.User, tr *translation.Translator) (string, bool) {
	switch {
	case user.ServiceSuspended():
		return tr.T("serviceSuspended") + "\n" + tr.T("serviceSuspendedDetail"), true
	case user.PaymentPending():
		return "⚠️ " + tr.T("paymentPending"), true
	}
	return "", false
}

// showAccount logs the guard's resolved theme and any subscription banner. It
// reports false when the service is suspended and the dashboard must stay hidden.
func showAccount(user users.User, tr *translation.Translator) bool {
	theme := user.Theme()
	log.Info().
		Str("primary", theme.Primary).
		Str("secondary", theme.Secondary).
		Str("plan", theme.Plan).
		Bool("elite", theme.IsElite).
		Str("logo", theme.Logo).
		Msg(tr.T("theme"))

	if notice, ok := subscriptionNotice(user, tr); ok {
		log.Warn().Msg(notice)
	}
	return !user.ServiceSuspended()
}
