// Package alerting is the Telegram sink for the fatal and
// security-relevant conditions raised throughout the runtime: store
// corruption, a reactor/transport bind failure, or a raised
// SecurityEventNotification. Off by default (nil bot token), per the
// domain stack's "operator alert sink... off by default" entry.
//
// Grounded on the teacher's telegram.TgBot (telegram/bot.go), which
// wraps the same go-telegram-bot-api client with a send channel and a
// MarkdownV2-with-fallback send routine; generalized from a
// subscriber/command bot (users `/start`ing and `/stop`ping status
// updates) into a fire-and-forget operator alert sink, since a charge
// point has no driver-facing chat commands to answer.
package alerting

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"chargepoint/internal/logx"
	"chargepoint/ocpp/security"
)

// Sink fans fatal and security alerts out to a fixed set of operator
// chat IDs. A nil Sink is valid and every method on it is a no-op, so
// callers never need to check whether alerting is configured.
type Sink struct {
	api     *tgbotapi.BotAPI
	chatIDs []int64
	log     logx.Handler
	send    chan string
}

// New returns nil, nil when token is empty, matching the domain
// stack's "off by default" requirement without forcing every call
// site to branch on a separate enabled flag.
func New(token string, chatIDs []int64, log logx.Handler) (*Sink, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("alerting: %w", err)
	}
	s := &Sink{api: api, chatIDs: chatIDs, log: log, send: make(chan string, 64)}
	go s.pump()
	return s, nil
}

func (s *Sink) pump() {
	for text := range s.send {
		for _, chatID := range s.chatIDs {
			s.deliver(chatID, text)
		}
	}
}

func (s *Sink) deliver(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := s.api.Send(msg); err != nil {
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := s.api.Send(plain); err != nil && s.log != nil {
			s.log.Warn(fmt.Sprintf("alerting: failed to deliver to chat %d: %v", chatID, err))
		}
	}
}

// Fatal reports a condition spec.md section 7 treats as unrecoverable:
// persistence failure on startup, or a transport bind failure that
// leaves the runtime unable to reach the Central System at all.
func (s *Sink) Fatal(component, reason string) {
	if s == nil {
		return
	}
	s.send <- fmt.Sprintf("*FATAL* `%v`: %v", sanitize(component), sanitize(reason))
}

// SecurityEvent mirrors the outbound SecurityEventNotification raised
// for the same condition, so operators see it even if the Central
// System connection that would otherwise carry it is down.
func (s *Sink) SecurityEvent(eventType security.SecurityEventType, detail string) {
	if s == nil {
		return
	}
	text := fmt.Sprintf("*security event* `%v`", sanitize(string(eventType)))
	if detail != "" {
		text += fmt.Sprintf("\n%v", sanitize(detail))
	}
	s.send <- text
}

// sanitize escapes MarkdownV2's reserved characters, identical to the
// teacher's own escaping routine.
func sanitize(input string) string {
	const reserved = "\\`*_{}[]()#+-.!|"
	sanitized := ""
	for _, ch := range input {
		if contains(reserved, ch) {
			sanitized += "\\" + string(ch)
		} else {
			sanitized += string(ch)
		}
	}
	return sanitized
}

func contains(s string, ch rune) bool {
	for _, r := range s {
		if r == ch {
			return true
		}
	}
	return false
}
