package service

import (
	"context"
	"errors"
)

// Session описывает чат-сессию, которую обслуживает Service.
type Session interface {
	Connector
	Wait(ctx context.Context) error
}

// Service управляет жизненным циклом чат-сессии.
type Service struct {
	session   Session
	lifecycle *Lifecycle
}

// New создаёт Service с уже собранной сессией и менеджером подключения.
func New(session Session, lifecycle *Lifecycle) *Service {
	return &Service{session: session, lifecycle: lifecycle}
}

// Run подключает сессию и блокируется до отмены контекста или обрыва сессии.
func (s *Service) Run(ctx context.Context) error {
	if !s.lifecycle.Connect(ctx) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return errors.New("service: chat session not established")
	}
	return s.session.Wait(ctx)
}
