package command

import (
	"github.com/bwmarrin/discordgo"
)

// Yuri opens the submission modal. The optional attachment becomes the
// sample image on the decision message.
var Yuri = &discordgo.ApplicationCommand{
	Name:        "yuri",
	Description: "Submit a form for Yuri content addition!",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionAttachment,
			Name:        "sample",
			Description: "Sample of the content to be submitted to help us decide quicker!",
		},
	},
}

// Ping answers with Pong.
var Ping = &discordgo.ApplicationCommand{
	Name:        "ping",
	Description: "Pong!",
}

// All lists every command registered on the guild at startup.
var All = []*discordgo.ApplicationCommand{
	Yuri,
	Ping,
}
