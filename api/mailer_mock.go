package api

import (
	"context"
	"sync"

	"quickshow/entities"
)

type MailerMock struct {
	lock sync.Mutex
	Sent []entities.Email
}

func (m *MailerMock) Send(ctx context.Context, email entities.Email) error {
	if _, _, _, err := RenderEmail(email); err != nil {
		return entities.PermanentError{Err: err}
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.Sent = append(m.Sent, email)
	return nil
}

func (m *MailerMock) SentTo(to, template string) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	count := 0
	for _, email := range m.Sent {
		if email.To == to && email.Template == template {
			count++
		}
	}

	return count
}
