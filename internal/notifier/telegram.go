package notifier

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/events"
	"github.com/ndavydov/applicant-sync/internal/logger"
)

// Telegram pushes shortlist transitions to a recruiter chat. It only listens
// on the bus; a send failure never reaches the sync engine.
type Telegram struct {
	api    *botApi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64, bus EventBus.Bus) (*Telegram, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	notifier := &Telegram{api: api, chatID: chatID}

	if err = bus.Subscribe(events.ApplicantShortlistedTopic, notifier.onShortlisted); err != nil {
		return nil, err
	}
	if err = bus.Subscribe(events.ShortlistRevokedTopic, notifier.onRevoked); err != nil {
		return nil, err
	}

	return notifier, nil
}

func (t *Telegram) onShortlisted(event events.ApplicantShortlisted) {
	action := "updated on"
	if event.Created {
		action = "added to"
	}
	t.send(fmt.Sprintf("Applicant %v was %v the shortlist", event.ApplicantKey, action))
}

func (t *Telegram) onRevoked(event events.ShortlistRevoked) {
	t.send(fmt.Sprintf("Applicant %v was removed from the shortlist", event.ApplicantKey))
}

func (t *Telegram) send(text string) {
	msg := botApi.NewMessage(t.chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("failed to send notification: %v", err)
	}
}
