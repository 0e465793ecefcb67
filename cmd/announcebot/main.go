package main

import (
	"fmt"
	"log"

	"announcebot/admins"
	"announcebot/bot"
	"announcebot/core/bootstrap"
	corecmd "announcebot/core/cmd"
	coreconfig "announcebot/core/config"
	coretelegram "announcebot/core/telegram"
	"announcebot/store"
	"announcebot/store/jsonfile"
	"announcebot/store/postgres"
)

type configCarrier struct {
	cfg *coreconfig.Config
}

func (c *configCarrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	bot *bot.Bot
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return a.bot.RunOptions(), nil
}

func buildApp(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	result, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	var (
		groups    store.GroupStore
		users     store.UserStore
		templates store.TemplateStore
		adminIDs  store.AdminStore
	)
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		stores := postgres.New(result.DB)
		groups, users, templates, adminIDs = stores.Groups, stores.Users, stores.Templates, stores.Admins
	default:
		stores, err := jsonfile.New(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open json storage: %w", err)
		}
		groups, users, templates, adminIDs = stores.Groups, stores.Users, stores.Templates, stores.Admins
	}

	registry, err := admins.NewRegistry(adminIDs, cfg.Admins.Seed)
	if err != nil {
		return nil, err
	}

	return &app{bot: bot.New(bot.Options{
		Config:    cfg,
		Groups:    groups,
		Users:     users,
		Templates: templates,
		Admins:    registry,
	})}, nil
}

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return &configCarrier{cfg: cfg}, nil
		},
		Bootstrap: buildApp,
	})
	if err != nil {
		log.Fatalf("announcebot: %v", err)
	}
}
