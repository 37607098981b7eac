package discord_test

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/internal/discord"
	"github.com/Samuelzila/grammar-police/internal/model"
	"github.com/Samuelzila/grammar-police/internal/service"
)

type fakeIngest struct {
	params []service.MessageIngestParams
}

func (f *fakeIngest) Ingest(_ context.Context, params service.MessageIngestParams) (*service.MessageIngestResult, error) {
	f.params = append(f.params, params)
	return &service.MessageIngestResult{}, nil
}

type fakeCommands struct {
	handleFn func(req service.CommandRequest) (service.CommandResponse, error)
	requests []service.CommandRequest
}

func (f *fakeCommands) Handle(_ context.Context, req service.CommandRequest) (service.CommandResponse, error) {
	f.requests = append(f.requests, req)
	if f.handleFn != nil {
		return f.handleFn(req)
	}
	return service.CommandResponse{Content: ":eyes:", Ephemeral: true}, nil
}

type fakeSession struct {
	responses  []*discordgo.InteractionResponse
	registered []*discordgo.ApplicationCommand
	createErr  error
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) ApplicationCommandCreate(_ string, _ string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.registered = append(f.registered, cmd)
	return cmd, nil
}

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionApplicationCommand,
		Member: &discordgo.Member{User: &discordgo.User{ID: "333"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

var _ = Describe("Discord gateway", func() {
	var (
		ingest   *fakeIngest
		commands *fakeCommands
		session  *fakeSession
		h        *discord.Handler
	)

	BeforeEach(func() {
		ingest = &fakeIngest{}
		commands = &fakeCommands{}
		session = &fakeSession{}
		h = discord.NewHandler(context.Background(), ingest, commands)
	})

	Describe("messages", func() {
		It("forwards a member's message", func() {
			h.HandleMessage(&discordgo.Message{
				ID:        "m1",
				ChannelID: "c1",
				GuildID:   "g1",
				Content:   "Je c'est que j'ai raison.",
				Author:    &discordgo.User{ID: "111"},
			}, "999")

			Expect(ingest.params).To(Equal([]service.MessageIngestParams{{
				Platform:  model.PlatformDiscord,
				SenderID:  "111",
				Content:   "Je c'est que j'ai raison.",
				ChannelID: "c1",
				MessageID: "m1",
				GuildID:   "g1",
			}}))
		})

		It("skips the bot's own replies", func() {
			h.HandleMessage(&discordgo.Message{ID: "m1", ChannelID: "c1", Author: &discordgo.User{ID: "999"}}, "999")
			Expect(ingest.params).To(BeEmpty())
		})

		It("skips other bots", func() {
			h.HandleMessage(&discordgo.Message{ID: "m1", ChannelID: "c1", Author: &discordgo.User{ID: "5", Bot: true}}, "999")
			Expect(ingest.params).To(BeEmpty())
		})
	})

	Describe("commands", func() {
		It("answers grammar_enable ephemerally", func() {
			h.HandleInteraction(session, commandInteraction("grammar_enable"))

			Expect(commands.requests).To(Equal([]service.CommandRequest{{Name: "grammar_enable", SenderID: "333"}}))
			Expect(session.responses).To(HaveLen(1))
			Expect(session.responses[0].Type).To(Equal(discordgo.InteractionResponseChannelMessageWithSource))
			Expect(session.responses[0].Data.Content).To(Equal(":eyes:"))
			Expect(session.responses[0].Data.Flags).To(Equal(discordgo.MessageFlagsEphemeral))
		})

		It("passes the word option through", func() {
			h.HandleInteraction(session, commandInteraction("grammar_add_word", &discordgo.ApplicationCommandInteractionDataOption{
				Name:  "word",
				Type:  discordgo.ApplicationCommandOptionString,
				Value: "icitte",
			}))

			Expect(commands.requests[0].Options).To(HaveKeyWithValue("word", "icitte"))
		})

		It("uses the DM user when there is no member", func() {
			i := commandInteraction("grammar_enable")
			i.Member = nil
			i.User = &discordgo.User{ID: "444"}

			req, ok := discord.CommandRequest(i)
			Expect(ok).To(BeTrue())
			Expect(req.SenderID).To(Equal(model.SenderID("444")))
		})

		It("does not respond when the command fails", func() {
			commands.handleFn = func(service.CommandRequest) (service.CommandResponse, error) {
				return service.CommandResponse{}, errors.New("disk full")
			}

			h.HandleInteraction(session, commandInteraction("grammar_enable"))
			Expect(session.responses).To(BeEmpty())
		})

		It("ignores non command interactions", func() {
			i := commandInteraction("grammar_enable")
			i.Type = discordgo.InteractionMessageComponent

			h.HandleInteraction(session, i)
			Expect(commands.requests).To(BeEmpty())
		})
	})

	Describe("registration", func() {
		It("registers both commands with their options", func() {
			h.RegisterCommands(session, "app")

			Expect(session.registered).To(HaveLen(2))
			Expect(session.registered[0].Name).To(Equal("grammar_enable"))
			Expect(session.registered[1].Name).To(Equal("grammar_add_word"))
			Expect(session.registered[1].Options).To(HaveLen(1))
			Expect(session.registered[1].Options[0].Type).To(Equal(discordgo.ApplicationCommandOptionString))
			Expect(session.registered[1].Options[0].Name).To(Equal("word"))
		})

		It("keeps going when registration fails", func() {
			session.createErr = errors.New("rate limited")

			Expect(func() { h.RegisterCommands(session, "app") }).NotTo(Panic())
		})
	})
})
