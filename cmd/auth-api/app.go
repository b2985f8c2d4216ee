package main

import (
	"github.com/NordCoder/authgate/internal/audit"
	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"github.com/NordCoder/authgate/internal/password"
	pg "github.com/NordCoder/authgate/internal/repository/postgres"
	"github.com/NordCoder/authgate/internal/services/auth-api/auth"
	accountsvc "github.com/NordCoder/authgate/internal/services/auth-api/user"
	"github.com/NordCoder/authgate/internal/token"
	"go.uber.org/zap"
)

type app struct {
	guard    *auth.Guard
	accounts *accountsvc.Usecase
	authCtl  *auth.Controller
	userCtl  *accountsvc.Controller
}

func buildApp(cfg *config.Config, logger *zap.Logger, db *pg.DB, sink audit.Sink) (*app, error) {
	codec, err := token.NewCodec(cfg.Auth.AsTokenConfig())
	if err != nil {
		return nil, err
	}

	users := pg.NewUserRepo(db)
	hasher := password.NewBcrypt(cfg.Auth.BcryptCost)
	engine := auth.NewEngine(users, codec, hasher, auth.Opts{Logger: logger, Audit: sink})
	cookieOpts := cfg.Auth.AsCookieOpts(cfg.App)
	cookieOpts.Now = codec.Now
	cookies := auth.NewCookies(cookieOpts)
	accounts := accountsvc.New(users, pg.NewTransactor(db, logger), hasher, sink)

	return &app{
		guard:    auth.NewGuard(engine, cookies, logger),
		accounts: accounts,
		authCtl:  auth.NewController(engine, cookies, logger),
		userCtl:  accountsvc.NewController(accounts, cookies, logger),
	}, nil
}
