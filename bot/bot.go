// Package bot wires the announcement bot's commands, callbacks, and
// conversation flows onto the Telegram transport layer.
package bot

import (
	"context"
	"sync/atomic"

	"announcebot/admins"
	"announcebot/broadcast"
	coreconfig "announcebot/core/config"
	tg "announcebot/core/telegram"
	"announcebot/core/telegram/router"
	"announcebot/core/telegram/state"
	"announcebot/flows"
	"announcebot/store"

	tele "gopkg.in/telebot.v4"
)

// Options carries the dependencies a Bot needs.
type Options struct {
	Config    *coreconfig.Config
	Groups    store.GroupStore
	Users     store.UserStore
	Templates store.TemplateStore
	Admins    *admins.Registry
}

// Bot is the assembled application: stores, flow controllers, and the
// broadcast engine behind the Telegram handler surface.
type Bot struct {
	cfg       *coreconfig.Config
	groups    store.GroupStore
	users     store.UserStore
	templates store.TemplateStore
	admins    *admins.Registry
	states    *state.Manager

	register     *flows.RegisterController
	adminFlow    *flows.AdminController
	groupFlow    *flows.GroupController
	templateFlow *flows.TemplateController
	announce     *flows.AnnounceController

	tg     *tele.Bot
	engine *broadcast.Engine
	runCtx context.Context

	// broadcasting guards against overlapping fan-out runs.
	broadcasting atomic.Bool
}

// New assembles a Bot. The Telegram connection is attached later by
// RunOptions' OnStart hook.
func New(opts Options) *Bot {
	states := state.NewManager()
	b := &Bot{
		cfg:       opts.Config,
		groups:    opts.Groups,
		users:     opts.Users,
		templates: opts.Templates,
		admins:    opts.Admins,
		states:    states,
	}
	b.register = &flows.RegisterController{Users: b.users, Admins: b.admins, States: states}
	b.adminFlow = &flows.AdminController{Registry: b.admins, States: states}
	b.groupFlow = &flows.GroupController{Groups: b.groups, States: states}
	b.templateFlow = &flows.TemplateController{Templates: b.templates, States: states}
	b.announce = &flows.AnnounceController{States: states}
	return b
}

// RunOptions builds the telegram.RunOptions that wire this bot into
// the transport runner.
func (b *Bot) RunOptions() tg.RunOptions {
	reg := tg.NewRegistry()
	b.registerCommands(reg)
	b.registerCallbacks(reg)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Admins:        b.admins,
		OnAdminReject: func(c tele.Context) error {
			return c.Send("❌ У вас нет прав для использования этой команды.")
		},
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(b, reg, router.MessageOptions{})...)
	routes = append(routes, tg.Route{Endpoint: tele.OnMyChatMember, Handler: b.handleMyChatMember})

	return tg.RunOptions{
		Config:      b.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(b.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			b.tg = rt.Bot
			b.runCtx = ctx
			b.engine = broadcast.NewEngine(broadcast.Options{
				Transport:     &transport{bot: rt.Bot},
				Groups:        b.groups,
				UserDelay:     b.cfg.UserSendDelay(),
				ProgressEvery: b.cfg.Broadcast.ProgressEvery,
			})
			go b.states.RunSweeper(ctx, b.cfg.StateSweepInterval(), b.cfg.StateTTL())
			return nil
		},
	}
}

// isAdmin reports whether the sender may use privileged commands.
func (b *Bot) isAdmin(c tele.Context) bool {
	return c.Sender() != nil && b.admins.IsAdmin(c.Sender().ID)
}
