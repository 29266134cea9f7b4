package main

import (
	"context"
	"fmt"
	"log"

	"github.com/m3rciful/cowinbot/core/bootstrap"
	corecmd "github.com/m3rciful/cowinbot/core/cmd"
	"github.com/m3rciful/cowinbot/internal/bot"
	"github.com/m3rciful/cowinbot/internal/config"
	"github.com/m3rciful/cowinbot/internal/cowin"
	"github.com/m3rciful/cowinbot/internal/session"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return build(ctx, cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

func build(ctx context.Context, cfg *config.Config) (*bot.App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options[session.Session]{Config: cfg.CoreConfig()})
	if err != nil {
		return nil, err
	}
	api := cowin.New(cowin.Options{
		BaseURL:   cfg.Cowin.BaseURL,
		UserAgent: cfg.Cowin.UserAgent,
		Timeout:   cfg.Cowin.Timeout(),
	})
	machine := session.NewMachine(api, res.Store, cfg.Cowin.Secret)
	app, err := bot.New(cfg, machine, res.Store)
	if err != nil {
		_ = res.Store.Close()
		return nil, err
	}
	return app, nil
}
