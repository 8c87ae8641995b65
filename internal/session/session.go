// Package session holds the state of one interactive order session and the
// command loop that drives it.
package session

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/pi-generator/internal/delivery"
	"github.com/xenking/pi-generator/internal/domain/order"
)

var (
	// ErrLocked is returned by order operations before a successful login.
	ErrLocked = errors.New("login required")
	// ErrInFlight is returned when an operation is started while another is
	// still running.
	ErrInFlight = errors.New("request already in progress")
)

// Deliverer runs the delivery operations.
type Deliverer interface {
	Download(ctx context.Context, r *order.Record) (delivery.Status, error)
	Email(ctx context.Context, r *order.Record) (delivery.Status, error)
}

// Session is the state owned by one interactive user: the order being edited,
// the last status banner, the in-flight flag and whether the gate was passed.
//
// Delivery operations read a snapshot of the record and return a Status that
// the session then applies, replacing the previous banner.
type Session struct {
	gate      *Gate
	deliverer Deliverer

	mu       sync.Mutex
	record   *order.Record
	status   delivery.Status
	inFlight bool
	loggedIn bool
}

// New creates a Session with an empty order.
func New(gate *Gate, deliverer Deliverer) *Session {
	return &Session{
		gate:      gate,
		deliverer: deliverer,
		record:    order.New(),
	}
}

// Login passes the gate.
func (s *Session) Login(username, password string) error {
	if err := s.gate.Check(username, password); err != nil {
		return err
	}
	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	return nil
}

// Logout locks the session again. The order is kept.
func (s *Session) Logout() {
	s.mu.Lock()
	s.loggedIn = false
	s.mu.Unlock()
}

// LoggedIn reports whether the gate was passed.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// InFlight reports whether a delivery operation is running.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Status returns the current banner.
func (s *Session) Status() delivery.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Record returns a copy of the order being edited.
func (s *Session) Record() *order.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Snapshot()
}

// Edit applies fn to the order being edited.
func (s *Session) Edit(fn func(r *order.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return ErrLocked
	}
	return fn(s.record)
}

// Load replaces the order being edited.
func (s *Session) Load(r *order.Record) error {
	return s.Edit(func(cur *order.Record) error {
		*cur = *r.Snapshot()
		return nil
	})
}

// Reset starts a new order and clears the banner.
func (s *Session) Reset() error {
	return s.Edit(func(r *order.Record) error {
		*r = *order.New()
		s.status = delivery.Status{}
		return nil
	})
}

// Download generates the document for the current order and stores it.
func (s *Session) Download(ctx context.Context) (delivery.Status, error) {
	return s.deliver(ctx, s.deliverer.Download)
}

// Email has the document generated and mailed to the order's recipient.
func (s *Session) Email(ctx context.Context) (delivery.Status, error) {
	return s.deliver(ctx, s.deliverer.Email)
}

func (s *Session) deliver(ctx context.Context, op func(context.Context, *order.Record) (delivery.Status, error)) (delivery.Status, error) {
	s.mu.Lock()
	switch {
	case !s.loggedIn:
		s.mu.Unlock()
		return delivery.Status{}, ErrLocked
	case s.inFlight:
		s.mu.Unlock()
		return delivery.Status{}, ErrInFlight
	}
	s.inFlight = true
	prev := s.status
	s.status = delivery.Status{}
	snap := s.record.Snapshot()
	s.mu.Unlock()

	st, err := op(ctx, snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.status = prev
		if errors.Is(err, delivery.ErrBusy) {
			return delivery.Status{}, ErrInFlight
		}
		return delivery.Status{}, err
	}
	s.status = st
	return st, nil
}
