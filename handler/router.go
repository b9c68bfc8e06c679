package handler

import (
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/catuhana/YuriEveryHour-bot/approval"
	"github.com/catuhana/YuriEveryHour-bot/config"
)

// The full interaction surface, fixed at compile time.
const (
	commandYuri = "yuri"
	commandPing = "ping"

	actionApprove = "approve"
	actionReject  = "reject"

	modalYuriSubmit = "yuri_submit"
)

// Handlers routes gateway interactions to the approval engine. All
// collaborators are passed in explicitly; nothing here reaches for globals.
type Handlers struct {
	coordinator *approval.Coordinator
	forms       *FormCache
	channels    config.ChannelsConfig
	logger      *slog.Logger
}

func New(coordinator *approval.Coordinator, forms *FormCache, channels config.ChannelsConfig, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		coordinator: coordinator,
		forms:       forms,
		channels:    channels,
		logger:      logger,
	}
}

// OnInteractionCreate is the main interaction router, registered as the
// session's interaction handler. Unknown names fall through silently.
func (h *Handlers) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case commandYuri:
			h.handleYuriCommand(s, i)
		case commandPing:
			h.handlePingCommand(s, i)
		}
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case actionApprove:
			h.handleDecision(s, i, approval.ActionApprove)
		case actionReject:
			h.handleDecision(s, i, approval.ActionReject)
		}
	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if name, formID, ok := strings.Cut(customID, ":"); ok && name == modalYuriSubmit {
			h.handleYuriModal(s, i, formID)
		}
	}
}

// respondEphemeral answers an interaction with a message only the actor
// sees. Used for every per-event error surface.
func (h *Handlers) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Error("failed to respond to interaction", "err", err)
	}
}
