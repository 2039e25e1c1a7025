package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-guard-companion/api"
	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/jrsteele09/go-guard-companion/session"
	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/jrsteele09/go-guard-companion/translation"
	"github.com/rs/zerolog/log"
)

func main() {
	opts := parseFlags(os.Args[1:])
	for {
		if err := run(opts); err != nil {
			log.Error().Err(err).Msg("Error running guard companion")
			if !opts.restartOnError {
				os.Exit(1)
			}
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Guard companion stopped")
}

func run(opts options) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	store, err := newStore(c)
	if err != nil {
		return err
	}
	clientOpts := []api.Option{api.WithTimeout(c.GetRequestTimeout())}
	if c.GetEnv() == "DEV" {
		clientOpts = append(clientOpts, api.WithRequestLog(log.Logger, true))
	}
	client := api.New(c.GetAPIURL(), clientOpts...)
	tr, err := translation.New(ctx, store, c.GetLanguage())
	if err != nil {
		return err
	}
	if opts.language != "" {
		lang, ok := translation.ParseLanguage(opts.language)
		if !ok {
			return fmt.Errorf("unsupported language %q", opts.language)
		}
		if err := tr.SetLanguage(ctx, lang); err != nil {
			log.Err(err).Msg("Error saving language")
		}
	}

	showBranding(ctx, client, store)

	manager := session.NewManager(c, store, client,
		session.WithNavigator(logNavigator{}),
		session.WithAlerter(newConsoleAlerter(os.Stdin, os.Stdout, tr)),
	)
	defer manager.Close()

	if !manager.Restore(ctx) {
		if err := signIn(ctx, manager, opts, tr); err != nil {
			return err
		}
	}

	current, _ := manager.Current()
	if showAccount(current.User, tr) {
		watcher := newDashboard(client, tr)
		unsubscribe := manager.OnDataRefresh(func() { watcher.report(ctx) })
		defer unsubscribe()
		watcher.report(ctx)
	}

	waitForStopSignal()
	if opts.logoutOnExit {
		manager.Logout()
	}
	return nil
}

func signIn(ctx context.Context, manager *session.Manager, opts options, tr *translation.Translator) error {
	if opts.email == "" || opts.password == "" {
		return errors.New("no stored session: pass --email and set GUARD_PASSWORD or --password")
	}
	if err := manager.Login(ctx, opts.email, opts.password); err != nil {
		return fmt.Errorf("%s: %w", tr.T("loginError"), err)
	}
	s, _ := manager.Current()
	log.Info().Str("name", s.User.Name).Msg(tr.T("welcomeBack"))
	return nil
}

// showBranding prints the community name shown on the sign in screen
func showBranding(ctx context.Context, client *api.Client, store storage.Repo) {
	tenantID, ok, err := store.Get(ctx, storage.KeyTenantID)
	if err != nil || !ok || tenantID == "" {
		return
	}
	branding, err := client.TenantBranding(ctx, tenantID)
	if err != nil {
		log.Debug().Err(err).Msg("No tenant branding")
		return
	}
	log.Info().Str("tenant", branding.Name).Str("logo", branding.LogoURL).Msg("Community")
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
