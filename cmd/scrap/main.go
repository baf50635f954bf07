package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/IngKendrys/scrap-backend/internal/blob"
	"github.com/IngKendrys/scrap-backend/internal/config"
	"github.com/IngKendrys/scrap-backend/internal/domain"
	"github.com/IngKendrys/scrap-backend/internal/http/handlers"
	applog "github.com/IngKendrys/scrap-backend/internal/log"
	"github.com/IngKendrys/scrap-backend/internal/repos"
	"github.com/IngKendrys/scrap-backend/internal/services"
	"github.com/IngKendrys/scrap-backend/internal/tokens"
)

func main() {
	app := &cli.App{
		Name:   "scrap",
		Usage:  "marketplace backend for registered businesses",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "createsuperuser",
				Usage: "create an administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "nombre", Usage: "business name", Required: true},
					&cli.StringFlag{Name: "correo", Usage: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "password", EnvVars: []string{"SUPERUSER_PASSWORD"}, Required: true},
					&cli.StringFlag{Name: "telefono", Usage: "phone", Required: true},
					&cli.StringFlag{Name: "direccion", Usage: "address", Value: "-"},
				},
				Action: createSuperuser,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		applog.L.Fatal(err)
	}
}

// stack holds what both commands open.
type stack struct {
	cfg    config.Config
	db     *sqlx.DB
	tokens services.TokenStore
	closer []io.Closer
}

func (r *stack) Close() {
	for i := len(r.closer) - 1; i >= 0; i-- {
		_ = r.closer[i].Close()
	}
}

func open() (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	r := &stack{cfg: cfg}
	logCloser, err := applog.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.L.WithError(err).Warn("file logging disabled")
	} else {
		r.closer = append(r.closer, logCloser)
	}

	r.db, err = repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.closer = append(r.closer, r.db)

	switch cfg.TokenBackend {
	case config.TokenBackendRedis:
		store, err := tokens.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.tokens = store
		r.closer = append(r.closer, store)
	default:
		r.tokens = repos.NewTokenRepo(r.db)
	}
	applog.L.WithFields(map[string]any{
		"port":          cfg.Port,
		"db_driver":     cfg.DBDriver,
		"media_dir":     cfg.MediaDir,
		"token_backend": cfg.TokenBackend,
		"registration":  cfg.RegistrationOpen,
	}).Info("config loaded")
	return r, nil
}

func serve(_ *cli.Context) error {
	rt, err := open()
	if err != nil {
		return err
	}
	defer rt.Close()

	blobs := blob.NewLocalStore(rt.cfg.MediaDir, rt.cfg.MediaBaseURL)
	deps := handlers.NewDeps(rt.db, rt.cfg, rt.tokens, blobs)
	app := handlers.NewApp(rt.cfg, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.L.Infof("listening on :%s", rt.cfg.Port)
		return app.Listen(":" + rt.cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		applog.L.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "server")
	}
	return nil
}

func createSuperuser(c *cli.Context) error {
	rt, err := open()
	if err != nil {
		return err
	}
	defer rt.Close()

	deps := handlers.NewDeps(rt.db, rt.cfg, rt.tokens, nil)
	u, err := deps.AuthService.CreateSuperuser(c.Context, domain.Registration{
		BusinessName: c.String("nombre"),
		Email:        c.String("correo"),
		Password:     c.String("password"),
		Phone:        c.String("telefono"),
		Address:      c.String("direccion"),
	})
	if err != nil {
		return err
	}
	applog.L.WithField("user_id", u.ID).Info("superuser created")
	return nil
}
