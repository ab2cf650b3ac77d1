package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const (
	// titleTimeout bounds the naming call so a slow provider never
	// stalls the conversation.
	titleTimeout = 5 * time.Second

	// maxTitleLength caps generated titles; fallbackTitleLength is the
	// truncation point when naming falls back to the raw message.
	maxTitleLength      = 100
	fallbackTitleLength = 50

	titlePrompt = "Write a short title, five words at most, for a conversation that " +
		"opens with the following message. Reply with the title only, no quotes.\n\n%s"
)

// GenerateTitle asks the model for a short session name based on the
// opening message. It never fails: when the model is unreachable, slow,
// or returns nothing usable, a truncated form of the message itself is
// used.
func (a *Agent) GenerateTitle(ctx context.Context, firstMessage string) string {
	firstMessage = strings.TrimSpace(firstMessage)
	if firstMessage == "" {
		return ""
	}

	genCtx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	resp, err := genkit.Generate(genCtx, a.g,
		ai.WithModelName(a.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(fmt.Sprintf(titlePrompt, firstMessage)))),
	)
	if err != nil {
		a.logger.Debug("title generation failed", "error", err)
		return fallbackTitle(firstMessage)
	}

	title := sanitizeTitle(resp.Text())
	if title == "" {
		return fallbackTitle(firstMessage)
	}
	return title
}

// sanitizeTitle reduces model output to a single clean line.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, `"'`)

	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return strings.TrimSpace(title)
}

// fallbackTitle derives a name from the message itself.
func fallbackTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= fallbackTitleLength {
		return message
	}
	return string(runes[:fallbackTitleLength-3]) + "..."
}
