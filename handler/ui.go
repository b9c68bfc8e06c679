package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

const (
	colourPending  = 0xE75480
	colourApproved = 0x1F8B4C
	colourRejected = 0xED4245
	colourExpired  = 0x95A5A6
)

// pendingEmbed is the decision message shown to the team.
func pendingEmbed(add model.AddSubmission) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "New Yuri submission",
		Description: fmt.Sprintf("Submitted by <@%s>. The team has a day to decide.", add.UserID),
		Color:       colourPending,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: add.Artist},
			{Name: "Content", Value: add.ArtLink},
		},
	}
	if add.AdditionalInformation != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Additional Context",
			Value: *add.AdditionalInformation,
		})
	}
	if add.SampleImageURL != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: *add.SampleImageURL}
	}
	return embed
}

// decisionButtons are the approve/reject components on a decision message.
func decisionButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: actionApprove,
				},
				discordgo.Button{
					Label:    "Reject",
					Style:    discordgo.DangerButton,
					CustomID: actionReject,
				},
			},
		},
	}
}

// decidedEmbed restyles a decision message's embed into its terminal form,
// keeping the submitted fields visible.
func decidedEmbed(message *discordgo.Message, decision model.Decision, actorTag string) *discordgo.MessageEmbed {
	embed := baseEmbed(message)
	if decision == model.DecisionApproved {
		embed.Title = fmt.Sprintf("Approved by %s!", actorTag)
		embed.Color = colourApproved
	} else {
		embed.Title = fmt.Sprintf("Rejected by %s!", actorTag)
		embed.Color = colourRejected
	}
	return embed
}

// expiredEmbed restyles a decision message whose approval window closed.
func expiredEmbed(message *discordgo.Message) *discordgo.MessageEmbed {
	embed := baseEmbed(message)
	embed.Title = "Expired without a decision."
	embed.Color = colourExpired
	return embed
}

// announcementEmbed is posted to the votes channel once a submission is
// approved.
func announcementEmbed(submission *model.Submission) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "New Yuri addition!",
		Description: fmt.Sprintf("Suggested by <@%s>.", submission.UserID),
		Color:       colourApproved,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: submission.Artist},
			{Name: "Content", Value: submission.ArtLink},
		},
	}
	if submission.SampleImageURL != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: *submission.SampleImageURL}
	}
	return embed
}

// baseEmbed copies the first embed of a message, or starts a fresh one when
// the message lost it.
func baseEmbed(message *discordgo.Message) *discordgo.MessageEmbed {
	if message != nil && len(message.Embeds) > 0 {
		embed := *message.Embeds[0]
		return &embed
	}
	return &discordgo.MessageEmbed{}
}
