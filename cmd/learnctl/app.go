package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"swiss-hub/internal/api"
	"swiss-hub/internal/authz"
	"swiss-hub/internal/config"
	"swiss-hub/internal/gateway"
	"swiss-hub/internal/identity"
	"swiss-hub/internal/snapshot"
	"swiss-hub/internal/store"
)

type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
	snaps *snapshot.Store
}

func newApp(cfg *config.Config, logger *zap.Logger) *cli.App {
	a := &app{cfg: cfg, log: logger}
	return &cli.App{
		Name:  "learnctl",
		Usage: "browse courses and track lesson progress",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "row API base URL", Value: cfg.APIURL, EnvVars: []string{"API_URL"}},
			&cli.StringFlag{Name: "api-key", Usage: "service token sent to the row API", Value: cfg.APIKey, EnvVars: []string{"API_KEY"}},
			&cli.StringFlag{Name: "identity-token", Usage: "identity provider token to sign in with", EnvVars: []string{"IDENTITY_TOKEN"}},
			&cli.StringFlag{Name: "snapshot", Usage: "local snapshot directory", Value: cfg.SnapshotPath, EnvVars: []string{"SNAPSHOT_PATH"}},
		},
		Before:   a.setup,
		After:    a.close,
		Commands: a.commands(),
	}
}

// setup builds the store and restores the last snapshot. Signing in is left
// to the commands that need a user.
func (a *app) setup(c *cli.Context) error {
	key := c.String("api-key")
	if key == "" && a.cfg.ServiceSecret != "" {
		var err error
		if key, err = api.IssueServiceToken([]byte(a.cfg.ServiceSecret), "learnctl", time.Hour); err != nil {
			return err
		}
	}

	snaps, err := snapshot.Open(c.String("snapshot"))
	if err != nil {
		return err
	}
	a.snaps = snaps

	gw := gateway.NewREST(c.String("api-url"), key, a.cfg.RequestTimeout, gateway.WithLogger(a.log))
	a.store = store.New(gw,
		store.WithLogger(a.log),
		store.WithSnapshots(snaps),
		store.WithTTL(a.cfg.CacheTTL))
	if _, err := a.store.Hydrate(); err != nil {
		a.log.Warn("snapshot unreadable, starting empty", zap.Error(err))
	}
	return nil
}

func (a *app) close(*cli.Context) error {
	if a.snaps == nil {
		return nil
	}
	return a.snaps.Close()
}

// signIn verifies --identity-token when given, otherwise reuses the user from
// the snapshot. Either way the user's data is refreshed through the cache.
func (a *app) signIn(c *cli.Context) error {
	if token := c.String("identity-token"); token != "" {
		id, err := identity.NewVerifier(a.cfg.IdentitySecret).Verify(token)
		if err != nil {
			return err
		}
		if _, err := a.store.InitializeUser(c.Context, id); err != nil {
			return err
		}
	} else if a.store.CurrentUser() == nil {
		return fmt.Errorf("%w: pass --identity-token", authz.ErrUnauthenticated)
	} else {
		a.store.RefreshData(c.Context, false)
	}
	if err := a.store.Err(); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
		a.store.ClearError()
	}
	return nil
}
