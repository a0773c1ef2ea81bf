package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"quickshow/entities"

	"github.com/google/uuid"
)

type mockSession struct {
	bookingID string
	status    string
	expired   bool
}

// PaymentsMock keeps checkout sessions in memory. Sessions start unpaid; use Pay to complete them.
type PaymentsMock struct {
	lock     sync.Mutex
	sessions map[string]*mockSession
}

func NewPaymentsMock() *PaymentsMock {
	return &PaymentsMock{sessions: map[string]*mockSession{}}
}

func (p *PaymentsMock) CreateSession(ctx context.Context, request entities.PaymentSessionRequest) (entities.PaymentSession, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	sessionID := "cs_mock_" + uuid.NewString()
	p.sessions[sessionID] = &mockSession{
		bookingID: request.BookingID.String(),
		status:    "unpaid",
	}

	return entities.PaymentSession{
		SessionID: sessionID,
		URL:       "https://checkout.mock/pay/" + sessionID,
	}, nil
}

func (p *PaymentsMock) GetStatus(ctx context.Context, sessionID string) (entities.PaymentStatus, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return entities.PaymentStatus{}, fmt.Errorf("%w: %s", entities.ErrInvalidSession, sessionID)
	}

	return entities.PaymentStatus{
		SessionID: sessionID,
		BookingID: s.bookingID,
		Status:    s.status,
	}, nil
}

func (p *PaymentsMock) ExpireSession(ctx context.Context, sessionID string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if s, ok := p.sessions[sessionID]; ok && s.status != "paid" {
		s.expired = true
	}

	return nil
}

// ParseWebhook accepts {"type": ..., "sessionId": ...} without a signature.
func (p *PaymentsMock) ParseWebhook(payload []byte, signature string) (string, error) {
	var event struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", fmt.Errorf("%w: %w", entities.ErrInvalidSignature, err)
	}
	if event.Type != "checkout.session.completed" {
		return "", nil
	}

	return event.SessionID, nil
}

// Pay completes the session, unless it was expired.
func (p *PaymentsMock) Pay(sessionID string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok || s.expired {
		return false
	}
	s.status = "paid"

	return true
}

func (p *PaymentsMock) Expired(sessionID string) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	s, ok := p.sessions[sessionID]
	return ok && s.expired
}
