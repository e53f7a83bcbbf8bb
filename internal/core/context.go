package core

import "context"

type contextKey string

const botIDContextKey contextKey = "botID"

// ContextWithBotID tags a context with the owning bot's id so collaborators
// like the executor's debug logger can attribute their output.
func ContextWithBotID(ctx context.Context, botID string) context.Context {
	return context.WithValue(ctx, botIDContextKey, botID)
}

// BotIDFromContext returns the bot id attached to ctx, or "".
func BotIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(botIDContextKey).(string); ok {
		return id
	}
	return ""
}
