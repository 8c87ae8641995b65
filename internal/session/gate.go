package session

import (
	"crypto/subtle"
	"strings"

	"github.com/go-faster/errors"
)

// Default credentials accepted by the gate.
const (
	DefaultUsername = "PIGENERATOR"
	DefaultPassword = "PI@GENERATOR"
)

// ErrInvalidCredentials is returned by Gate.Check on a mismatch.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Gate is a static username/password check that hides the order commands
// until it passes. It does not protect anything.
type Gate struct {
	username string
	password string
}

// NewGate creates a Gate. Empty values fall back to the defaults.
func NewGate(username, password string) *Gate {
	if username == "" {
		username = DefaultUsername
	}
	if password == "" {
		password = DefaultPassword
	}
	return &Gate{username: username, password: password}
}

// Check compares the trimmed input against the configured credentials.
func (g *Gate) Check(username, password string) error {
	u := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(g.username))
	p := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(g.password))
	if u&p != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
