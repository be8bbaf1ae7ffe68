package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// postMessageFn is swappable in tests.
var postMessageFn = func(cfg Config, channelID, text string) error {
	api := slack.New(cfg.SlackBotToken)
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(text, false))
	return err
}

// PostLeaderboard sends a stored week's leaderboard to the configured
// channel.
func PostLeaderboard(cfg Config, weekID string, rows []WeekRow) error {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return fmt.Errorf("slack_bot_token and slack_channel_id must be configured")
	}
	msg := formatLeaderboardMessage(weekID, rows, cfg.SlackTopN)
	if err := postMessageFn(cfg, cfg.SlackChannelID, msg); err != nil {
		return err
	}
	log.Printf("posted leaderboard week=%s rows=%d channel=%s", weekID, len(rows), cfg.SlackChannelID)
	return nil
}

func formatLeaderboardMessage(weekID string, rows []WeekRow, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Boss-kill leaderboard — week of %s*\n", weekID)
	for i, r := range rows {
		if topN > 0 && i >= topN {
			fmt.Fprintf(&b, "_…and %d more_\n", len(rows)-i)
			break
		}
		fmt.Fprintf(&b, "%s *%s* — %d pts (%s, streak %d)\n",
			rankEmoji(i+1), r.Name, r.TotalPoints, r.Level, r.Streak)
	}
	return b.String()
}

func rankEmoji(rank int) string {
	switch rank {
	case 1:
		return ":first_place_medal:"
	case 2:
		return ":second_place_medal:"
	case 3:
		return ":third_place_medal:"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}
