package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "log_ctx"

// StoreContext attaches a request-scoped context to the telebot context so
// downstream handlers can carry rid and update metadata into logs.
func StoreContext(c tele.Context, ctx context.Context) {
	c.Set(ctxKey, ctx)
}

// ContextOf retrieves the request-scoped context, context.Background() if unset.
func ContextOf(c tele.Context) context.Context {
	if v := c.Get(ctxKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}
