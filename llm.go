package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultLLMModel = "claude-sonnet-4-5-20250929"

// llmCompleteFn is swappable in tests so nothing hits the network.
var llmCompleteFn = callAnthropic

// SuggestCorrection asks the model for a corrected spelling of a line the
// fuzzy matcher could not resolve. It returns the proposed replacement line
// only; the operator decides whether to accept it.
func SuggestCorrection(cfg Config, line ParsedLine, issue ParseIssue, roster, bosses []string) (string, error) {
	if cfg.AnthropicAPIKey == "" {
		return "", fmt.Errorf("no anthropic_api_key configured")
	}

	systemPrompt := "You correct single lines from a boss-kill credit chat log. " +
		"Lines look like '<timestamp>: <author>: <boss> <names...>' or '<day> <month> <year> at <time> <author> <boss> <names...>'. " +
		"Fix only the token the issue names, keeping everything else byte-identical. " +
		"Reply with the corrected line and nothing else."

	var b strings.Builder
	fmt.Fprintf(&b, "Line: %s\n", line.Raw)
	fmt.Fprintf(&b, "Issue: %s", issue.Kind)
	if issue.Token != "" {
		fmt.Fprintf(&b, " on token %q", issue.Token)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Known players: %s\n", strings.Join(roster, ", "))
	fmt.Fprintf(&b, "Known bosses: %s\n", strings.Join(bosses, ", "))

	reply, err := llmCompleteFn(cfg.AnthropicAPIKey, cfg.LLMModel, systemPrompt, b.String())
	if err != nil {
		return "", err
	}
	proposal := strings.TrimSpace(reply)
	if idx := strings.IndexByte(proposal, '\n'); idx >= 0 {
		proposal = strings.TrimSpace(proposal[:idx])
	}
	if proposal == "" {
		return "", fmt.Errorf("empty proposal from model")
	}
	return proposal, nil
}

func callAnthropic(apiKey, model, systemPrompt, userPrompt string) (string, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm proposal size=%d tokens_in=%d tokens_out=%d",
				len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}
