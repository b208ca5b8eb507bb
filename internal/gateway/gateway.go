// Package gateway connects Slack app mentions to a chat session over Socket Mode.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"

	"github.com/tognete/codi/internal/agent"
	"github.com/tognete/codi/internal/logger"
)

// Chatter runs a chat turn.
type Chatter interface {
	Chat(ctx context.Context, message, source string) agent.Reply
}

// Poster delivers replies to a channel.
type Poster interface {
	PostBlocks(ctx context.Context, channel, fallback string, blocks []slack.Block) error
	PostText(ctx context.Context, channel, text string) error
}

// Gateway answers app mentions with chat replies.
type Gateway struct {
	chat   Chatter
	poster Poster
	log    *log.Logger
}

// New creates a Gateway.
func New(chat Chatter, poster Poster) *Gateway {
	return &Gateway{chat: chat, poster: poster, log: logger.NewStyledLogger("Gateway")}
}

// HandleMention runs one mention through the chat session and posts the reply.
// A failed delivery is reported back to the channel as text.
func (g *Gateway) HandleMention(ctx context.Context, user, channel, rawText string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			g.log.Error("Error handling mention", "user", user, "error", err)
			msg := fmt.Sprintf("I encountered a technical issue while processing your request: %s. Let me know if you'd like me to try a different approach.", err)
			if postErr := g.poster.PostText(ctx, channel, msg); postErr != nil {
				err = errors.Join(err, postErr)
			}
		}
	}()

	text := MentionText(rawText)
	g.log.Info("Message through Slack", "user", user, "text", text)

	reply := g.chat.Chat(ctx, text, agent.SourceGateway)
	if err := g.poster.PostBlocks(ctx, channel, reply.Text, FormatBlocks(reply.Text, reply.Task)); err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}

	g.log.Info("Replied through Slack", "user", user, "chars", len(reply.Text))
	return nil
}

// SlackPoster posts through the Slack Web API.
type SlackPoster struct {
	api *slack.Client
}

// NewSlackPoster wraps api.
func NewSlackPoster(api *slack.Client) *SlackPoster {
	return &SlackPoster{api: api}
}

// PostBlocks posts blocks with fallback as the notification text.
func (p *SlackPoster) PostBlocks(ctx context.Context, channel, fallback string, blocks []slack.Block) error {
	_, _, err := p.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(truncate(fallback, MaxTextLen), false),
		slack.MsgOptionBlocks(blocks...),
	)
	return err
}

// PostText posts a plain message.
func (p *SlackPoster) PostText(ctx context.Context, channel, text string) error {
	_, _, err := p.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	return err
}

// Listen connects with Socket Mode and handles app mentions until ctx is cancelled.
func Listen(ctx context.Context, chat Chatter, botToken, appToken string) error {
	if botToken == "" || appToken == "" {
		return errors.New("SLACK_BOT_TOKEN and SLACK_APP_TOKEN must be set")
	}

	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	client := socketmode.New(api)
	gw := New(chat, NewSlackPoster(api))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.RunContext(gctx)
	})
	g.Go(func() error {
		gw.log.Info("Slack interface ready")
		return gw.dispatch(gctx, client)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (g *Gateway) dispatch(ctx context.Context, client *socketmode.Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-client.Events:
			if !ok {
				return nil
			}
			g.handleEvent(ctx, client, evt)
		}
	}
}

func (g *Gateway) handleEvent(ctx context.Context, client *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		g.log.Debug("Connecting to Slack")
	case socketmode.EventTypeConnected:
		g.log.Debug("Connected to Slack")
	case socketmode.EventTypeConnectionError:
		g.log.Warn("Slack connection failed, retrying")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			client.Ack(*evt.Request)
		}
		if apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		if mention, ok := apiEvent.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			_ = g.HandleMention(ctx, mention.User, mention.Channel, mention.Text)
		}
	}
}
