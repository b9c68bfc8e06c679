package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

const (
	fieldArtist         = "artist"
	fieldArtLink        = "art_link"
	fieldAdditionalInfo = "additional_information"
)

const interactionTimeout = 15 * time.Second

// handlePingCommand answers with Pong.
func (h *Handlers) handlePingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
	if err != nil {
		h.logger.Error("failed to respond to ping", "err", err)
	}
}

// handleYuriCommand opens the submission modal. The optional sample
// attachment is stashed in the form cache; the modal's custom id carries the
// cache key so the submit handler can recover it.
func (h *Handlers) handleYuriCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var sampleImageURL *string
	for _, option := range data.Options {
		if option.Name == "sample" && option.Type == discordgo.ApplicationCommandOptionAttachment {
			if attachment, ok := data.Resolved.Attachments[option.Value.(string)]; ok {
				sampleImageURL = &attachment.URL
			}
		}
	}

	formID := h.forms.Put(sampleImageURL)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s:%s", modalYuriSubmit, formID),
			Title:    "Submit Yuri",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: fieldArtist,
							Label:    "Artist's Link",
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: fieldArtLink,
							Label:    "Content's Link",
							Style:    discordgo.TextInputShort,
							Required: true,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: fieldAdditionalInfo,
							Label:    "Additional Context",
							Style:    discordgo.TextInputParagraph,
							Required: false,
						},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to open submission modal", "err", err)
	}
}

// handleYuriModal validates the submitted form, posts the decision message
// to the approve channel and hands both to the coordinator. The message is
// posted first because the pending approval row is keyed by its id; if the
// transaction fails the message is deleted best-effort.
func (h *Handlers) handleYuriModal(s *discordgo.Session, i *discordgo.InteractionCreate, formID string) {
	form, _ := h.forms.Take(formID)

	add, err := parseSubmissionModal(i.ModalSubmitData(), i.Member.User.ID, form.SampleImageURL)
	if err != nil {
		h.respondEphemeral(s, i, fmt.Sprintf("Submission rejected: %v", err))
		return
	}

	message, err := s.ChannelMessageSendComplex(h.channels.ApproveID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{pendingEmbed(add)},
		Components: decisionButtons(),
	})
	if err != nil {
		h.logger.Error("failed to post decision message", "err", err)
		h.respondEphemeral(s, i, "Something went wrong while submitting, please try again later.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	if _, _, err := h.coordinator.Intake(ctx, add, message.ID); err != nil {
		h.logger.Error("failed to record submission", "err", err)
		if deleteErr := s.ChannelMessageDelete(h.channels.ApproveID, message.ID); deleteErr != nil {
			h.logger.Error("failed to delete orphaned decision message",
				"message_id", message.ID, "err", deleteErr)
		}
		h.respondEphemeral(s, i, "Something went wrong while submitting, please try again later.")
		return
	}

	h.respondEphemeral(s, i, "Submitted Yuri addition! After being checked, it will be posted to the votes channel for public approval.")
}

// parseSubmissionModal extracts and validates the modal fields.
func parseSubmissionModal(data discordgo.ModalSubmitInteractionData, userID string, sampleImageURL *string) (model.AddSubmission, error) {
	var artist, artLink, additionalInfo string
	for _, component := range data.Components {
		actionRow, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rowComponent := range actionRow.Components {
			textInput, ok := rowComponent.(*discordgo.TextInput)
			if !ok {
				continue
			}
			switch textInput.CustomID {
			case fieldArtist:
				artist = textInput.Value
			case fieldArtLink:
				artLink = textInput.Value
			case fieldAdditionalInfo:
				additionalInfo = textInput.Value
			}
		}
	}

	if artist == "" {
		return model.AddSubmission{}, fmt.Errorf("the artist field must not be empty")
	}
	if artLink == "" {
		return model.AddSubmission{}, fmt.Errorf("the content link field must not be empty")
	}

	add := model.AddSubmission{
		UserID:         userID,
		Artist:         artist,
		ArtLink:        artLink,
		SampleImageURL: sampleImageURL,
	}
	if additionalInfo != "" {
		add.AdditionalInformation = &additionalInfo
	}
	return add, nil
}
