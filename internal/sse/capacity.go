// Package sse fans capacity changes out to browsers watching an event page.
package sse

import (
	"context"
	"sync"
)

// CapacityUpdate is pushed after every committed admission.
type CapacityUpdate struct {
	EventID         int64 `json:"eventId"`
	RegistrationID  int64 `json:"registrationId"`
	NumberOfTickets int   `json:"numberOfTickets"`
	RemainingSpots  int   `json:"remainingSpots"`
}

// CapacityEmitter manages subscriber channels per event.
type CapacityEmitter struct {
	mu      sync.RWMutex
	clients map[int64][]chan CapacityUpdate
}

func NewCapacityEmitter() *CapacityEmitter {
	return &CapacityEmitter{clients: make(map[int64][]chan CapacityUpdate)}
}

// Subscribe registers a client for eventID. The channel is closed once ctx is done.
func (e *CapacityEmitter) Subscribe(ctx context.Context, eventID int64) <-chan CapacityUpdate {
	clientChan := make(chan CapacityUpdate, 10)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, clientChan)
	}()

	return clientChan
}

// Emit never blocks: a client whose buffer is full misses the update.
func (e *CapacityEmitter) Emit(update CapacityUpdate) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients[update.EventID] {
		select {
		case clientChan <- update:
		default:
		}
	}
}

func (e *CapacityEmitter) remove(eventID int64, clientChan chan CapacityUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of clients watching eventID.
func (e *CapacityEmitter) ClientCount(eventID int64) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[eventID])
}
