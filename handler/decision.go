package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/catuhana/YuriEveryHour-bot/approval"
	"github.com/catuhana/YuriEveryHour-bot/model"
)

// handleDecision applies a moderator's button click. The decision message
// itself carries the buttons, so the winning transition answers with an
// in-place update; losers get an ephemeral notice.
func (h *Handlers) handleDecision(s *discordgo.Session, i *discordgo.InteractionCreate, action approval.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	actor := i.Member.User
	submission, err := h.coordinator.Decide(ctx, i.Message.ID, actor.ID, action)
	switch {
	case errors.Is(err, approval.ErrNotTeamMember):
		h.respondEphemeral(s, i, "You don't have enough permissions to do that.")
		return
	case errors.Is(err, model.ErrNotFound):
		h.respondEphemeral(s, i, "This approval does not exist.")
		return
	case err != nil:
		h.logger.Error("failed to decide submission",
			"message_id", i.Message.ID, "actor_id", actor.ID, "err", err)
		h.respondEphemeral(s, i, "Something went wrong while deciding, please try again.")
		return
	}

	embed := decidedEmbed(i.Message, *submission.Decision, actor.String())
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		h.logger.Error("failed to update decision message",
			"message_id", i.Message.ID, "err", err)
	}

	if *submission.Decision == model.DecisionApproved {
		h.announceApproved(s, submission)
	}
}

// announceApproved posts an approved submission to the votes channel.
// Best-effort; the decision is already committed.
func (h *Handlers) announceApproved(s *discordgo.Session, submission *model.Submission) {
	_, err := s.ChannelMessageSendComplex(h.channels.VoteID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{announcementEmbed(submission)},
	})
	if err != nil {
		h.logger.Error("failed to announce approved submission",
			"submission_id", submission.SubmissionID, "err", err)
	}
}

// ExpiryNotifier restyles decision messages whose approval timed out. It is
// the coordinator's window back into the chat platform.
type ExpiryNotifier struct {
	Session   *discordgo.Session
	ChannelID string
	Logger    *slog.Logger
}

func (n *ExpiryNotifier) ApprovalExpired(ctx context.Context, approval model.PendingApproval) {
	message, err := n.Session.ChannelMessage(n.ChannelID, approval.MessageID)
	if err != nil {
		n.Logger.Warn("failed to fetch expired decision message",
			"message_id", approval.MessageID, "err", err)
		return
	}

	embed := expiredEmbed(message)
	_, err = n.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    n.ChannelID,
		ID:         approval.MessageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &[]discordgo.MessageComponent{},
	})
	if err != nil {
		n.Logger.Warn("failed to restyle expired decision message",
			"message_id", approval.MessageID, "err", err)
	}
}
