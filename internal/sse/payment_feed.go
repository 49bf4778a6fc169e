package sse

import (
	"context"
	"sync"

	"ms-backoffice/internal/models"
)

// allPayments is the subscription key for clients that want every payment.
const allPayments = ""

// PaymentFeed fans committed payments out to connected SSE clients.
type PaymentFeed struct {
	clients map[string][]chan models.PaymentEvent
	mu      sync.RWMutex
}

func NewPaymentFeed() *PaymentFeed {
	return &PaymentFeed{clients: make(map[string][]chan models.PaymentEvent)}
}

// Subscribe registers a client for payments of formNo, or all payments when formNo is empty.
// The channel is closed once ctx is done.
func (f *PaymentFeed) Subscribe(ctx context.Context, formNo string) <-chan models.PaymentEvent {
	clientChan := make(chan models.PaymentEvent, 10)

	f.mu.Lock()
	f.clients[formNo] = append(f.clients[formNo], clientChan)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(formNo, clientChan)
	}()
	return clientChan
}

// Broadcast never blocks; a client whose buffer is full misses the event.
func (f *PaymentFeed) Broadcast(event models.PaymentEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, key := range []string{allPayments, event.FormNo} {
		for _, clientChan := range f.clients[key] {
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

// Clients reports the number of connected subscribers.
func (f *PaymentFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, cs := range f.clients {
		n += len(cs)
	}
	return n
}

func (f *PaymentFeed) remove(key string, clientChan chan models.PaymentEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	clients := f.clients[key]
	for i, ch := range clients {
		if ch == clientChan {
			f.clients[key] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(f.clients[key]) == 0 {
		delete(f.clients, key)
	}
}
