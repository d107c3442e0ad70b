package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts notifications to one Discord channel.
type DiscordNotifier struct {
	sess      discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real gateway.
	Session discordSession
}

// NewDiscord creates a Discord notifier.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: discord bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord channel ID is required")
	}
	sess := opts.Session
	if sess == nil {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: discord session: %w", err)
		}
		sess = s
	}
	return &DiscordNotifier{sess: sess, channelID: opts.ChannelID}, nil
}

// Name implements Notifier.
func (n *DiscordNotifier) Name() string { return "discord" }

// Send posts the subject and body as one Discord message.
func (n *DiscordNotifier) Send(subject, body string) error {
	content := "**" + subject + "**\n" + body
	if _, err := n.sess.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("notify: discord post to %s: %w", n.channelID, err)
	}
	return nil
}
