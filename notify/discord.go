// Package notify posts ingestion outcomes to Discord. It only uses the
// REST API, so no gateway connection is opened.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"rafflescout/events"

	"github.com/bwmarrin/discordgo"
)

// Config holds notifier configuration
type Config struct {
	Token     string
	ChannelID string
}

type DiscordNotifier struct {
	config  Config
	session *discordgo.Session
}

func NewDiscordNotifier(config Config) (*DiscordNotifier, error) {
	if config.Token == "" || config.ChannelID == "" {
		return nil, fmt.Errorf("discord notifier requires both token and channel ID")
	}
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	return &DiscordNotifier{config: config, session: dg}, nil
}

// Register subscribes the notifier to ingestion events.
func (n *DiscordNotifier) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRunCompleted, n.handleRunCompleted)
	bus.Subscribe(events.EventTypeSourceFailed, n.handleSourceFailed)
}

func (n *DiscordNotifier) handleRunCompleted(ctx context.Context, event events.Event) {
	e, ok := event.(events.RunCompletedEvent)
	if !ok {
		return
	}
	summary := e.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "Ingestion run `%s` finished in %s: %d listings processed, %d upserted, %d pruned.",
		summary.RunID, summary.Duration().Round(time.Millisecond), summary.Processed, summary.Upserted, summary.Pruned)
	if len(summary.FailedSources) > 0 {
		fmt.Fprintf(&b, "\nFailed sources: %s", strings.Join(summary.FailedSources, ", "))
	}
	n.send(b.String())
}

func (n *DiscordNotifier) handleSourceFailed(ctx context.Context, event events.Event) {
	e, ok := event.(events.SourceFailedEvent)
	if !ok {
		return
	}
	n.send(fmt.Sprintf("Scraper `%s` failed during run `%s`: %s", e.Source, e.RunID, e.Reason))
}

func (n *DiscordNotifier) send(content string) {
	if _, err := n.session.ChannelMessageSend(n.config.ChannelID, content); err != nil {
		log.WithError(err).Error("Failed to send Discord notification")
	}
}
