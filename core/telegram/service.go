package telegram

import (
	"context"
	"fmt"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay"
	"github.com/m3rciful/relaybot/core/sched"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
	"github.com/m3rciful/relaybot/core/telegram/sender"
)

// Service connects inbound Telegram updates to the relay router and pushes
// the resulting actions through the outbound dispatcher.
type Service struct {
	router     *relay.Router
	transport  relay.Transport
	dispatcher *sender.Dispatcher
	counters   *sched.Counters
}

// NewService wires the routing pipeline.
func NewService(router *relay.Router, transport relay.Transport, dispatcher *sender.Dispatcher, counters *sched.Counters) *Service {
	return &Service{
		router:     router,
		transport:  transport,
		dispatcher: dispatcher,
		counters:   counters,
	}
}

// Register binds all relay endpoints on the bot. Commands get their own
// routes; everything else funnels through the generic message and callback
// handlers.
func (s *Service) Register(bot *tele.Bot) {
	for _, endpoint := range []string{
		"/start", "/menu", "/faq", "/schedule", "/payment",
		"/help", "/support", "/finish", "/history",
	} {
		bot.Handle(endpoint, s.handleMessage)
	}

	bot.Handle(tele.OnText, s.handleMessage)
	bot.Handle(tele.OnPhoto, s.handleMessage)
	bot.Handle(tele.OnDocument, s.handleMessage)
	bot.Handle(tele.OnVoice, s.handleMessage)
	bot.Handle(tele.OnVideo, s.handleMessage)
	bot.Handle(tele.OnCallback, s.handleCallback)
}

func (s *Service) handleMessage(c tele.Context) error {
	ev := DecodeMessage(c.Message())
	if ev == nil {
		// sticker, location, service message: nothing to relay
		return nil
	}
	return s.process(c, ev)
}

func (s *Service) handleCallback(c tele.Context) error {
	ctx := middleware.ContextOf(c)
	press, ok := DecodeCallback(c.Callback())
	if !ok {
		logger.Warn(ctx, "tg", "callback.malformed",
			slog.String("payload", logger.SanitizeLimit(c.Callback().Data, 128)),
		)
		return c.Respond(&tele.CallbackResponse{})
	}
	if err := s.process(c, press); err != nil {
		return err
	}
	// always answer the callback so the client stops its spinner
	return c.Respond(&tele.CallbackResponse{})
}

// process routes one event and enqueues a single job that executes the
// resulting actions in order, so multi-chunk replies arrive sequentially.
func (s *Service) process(c tele.Context, ev relay.Event) error {
	ctx := middleware.ContextOf(c)

	acts := s.router.Route(ctx, ev)
	if len(acts) == 0 {
		return nil
	}

	err := s.dispatcher.Enqueue(ctx, describeEvent(ev), func() error {
		s.execute(ctx, acts)
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "tg", "dispatch.drop",
			slog.Int("actions", len(acts)),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// execute performs the actions one by one. A failed action is logged and
// dropped; the rest still run so the conversation degrades instead of stalling.
func (s *Service) execute(ctx context.Context, acts []relay.Action) {
	for _, act := range acts {
		var err error
		switch a := act.(type) {
		case relay.SendText:
			_, err = s.transport.SendText(a.To, a.Text, a.Controls)
		case relay.SendMedia:
			_, err = s.transport.SendMedia(a.To, a.Kind, a.FileID, a.Caption, a.Controls)
		case relay.EditText:
			err = s.transport.Edit(a.Ref, a.Text, a.Controls)
		default:
			err = fmt.Errorf("unsupported action %T", act)
		}
		if err != nil {
			if s.counters != nil {
				s.counters.IncSendFailures()
			}
			logger.Error(ctx, "tg", "action.fail",
				slog.Int64("target", act.Recipient()),
				slog.String("err", err.Error()),
			)
			continue
		}
		if s.counters != nil {
			s.counters.IncActions()
		}
	}
}

func describeEvent(ev relay.Event) string {
	switch e := ev.(type) {
	case relay.Command:
		return "cmd." + string(e.Name)
	case relay.ButtonPress:
		return "button." + string(e.Button)
	case relay.TextMessage:
		return "text"
	case relay.MediaMessage:
		return "media." + string(e.Kind)
	}
	return "unknown"
}
