package middleware

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/sched"
)

// CountersMiddleware records every inbound update in the activity counters.
func CountersMiddleware(counters *sched.Counters) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if counters != nil {
				counters.IncUpdates()
			}
			return next(c)
		}
	}
}
