package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/approval"
	"github.com/catuhana/YuriEveryHour-bot/command"
	"github.com/catuhana/YuriEveryHour-bot/config"
	"github.com/catuhana/YuriEveryHour-bot/handler"
)

// Bot owns the Discord session and the approval engine behind it.
type Bot struct {
	session     *discordgo.Session
	coordinator *approval.Coordinator
	forms       *handler.FormCache
	cfg         *config.Config
	logger      *slog.Logger
}

// New wires the session, registry, coordinator and handlers together. The
// database handle is expected to be migrated already.
func New(cfg *config.Config, database *gorm.DB, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	coordinator := approval.NewCoordinator(approval.Config{
		Database: database,
		Registry: approval.NewRegistry(),
		Notifier: &handler.ExpiryNotifier{
			Session:   session,
			ChannelID: cfg.Discord.Channels.ApproveID,
			Logger:    logger,
		},
		Logger:        logger,
		TeamMemberIDs: cfg.Discord.Team,
	})

	forms := handler.NewFormCache()
	handlers := handler.New(coordinator, forms, cfg.Discord.Channels, logger)
	session.AddHandler(handlers.OnInteractionCreate)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("connected to Discord", "user", r.User.String())
	})

	return &Bot{
		session:     session,
		coordinator: coordinator,
		forms:       forms,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Run reconciles persisted state, connects to the gateway, registers the
// guild commands and blocks until ctx is cancelled. Reconciliation happens
// before the gateway opens so no live event can observe a stale registry.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.coordinator.Reconcile(ctx); err != nil {
		return fmt.Errorf("reconciling pending approvals: %w", err)
	}
	defer b.coordinator.Close()

	go b.forms.Janitor(ctx)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	defer b.session.Close()

	for _, cmd := range command.All {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.cfg.Discord.ServerID, cmd); err != nil {
			return fmt.Errorf("registering %q command: %w", cmd.Name, err)
		}
	}

	b.logger.Info("bot is now running", "guild_id", b.cfg.Discord.ServerID)
	<-ctx.Done()
	b.logger.Info("shutting down")
	return nil
}
