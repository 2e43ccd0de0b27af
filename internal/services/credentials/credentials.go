package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Store holds the active API credential shared by the AI clients. Clients
// read it through a key source on every request, so a re-selected credential
// takes effect without rebuilding them.
type Store struct {
	mu  sync.RWMutex
	key string
}

// NewStore seeds the store with the configured key, which may be empty.
func NewStore(key string) *Store {
	return &Store{key: strings.TrimSpace(key)}
}

// Key returns the current credential.
func (s *Store) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Set replaces the current credential.
func (s *Store) Set(key string) {
	s.mu.Lock()
	s.key = strings.TrimSpace(key)
	s.mu.Unlock()
}

// Has reports whether a credential is currently selected.
func (s *Store) Has() bool {
	return s.Key() != ""
}

// Selector is the external collaborator that supplies a credential: checked
// at process start when none is configured, and re-invoked when an
// authorization failure is detected during animation.
type Selector interface {
	Prompt(ctx context.Context) (string, error)
}

// ErrNotInteractive is returned when a prompt is required but no terminal is
// attached.
var ErrNotInteractive = errors.New("credential prompt requires an interactive terminal")

// TerminalSelector prompts for a credential on the controlling terminal
// without echoing the input.
type TerminalSelector struct {
	in  *os.File
	out io.Writer
}

// NewTerminalSelector builds a selector reading from stdin and writing the
// prompt to stderr.
func NewTerminalSelector() *TerminalSelector {
	return &TerminalSelector{in: os.Stdin, out: os.Stderr}
}

// Prompt blocks until the user supplies a non-empty key.
func (s *TerminalSelector) Prompt(ctx context.Context) (string, error) {
	fd := s.in.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return "", ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for {
		fmt.Fprint(s.out, "Enter Gemini API key: ")
		raw, err := term.ReadPassword(int(fd))
		fmt.Fprintln(s.out)
		if err != nil {
			return "", fmt.Errorf("read credential: %w", err)
		}
		if key := strings.TrimSpace(string(raw)); key != "" {
			return key, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

// StaticSelector returns a fixed credential; used in tests and
// non-interactive deployments.
type StaticSelector struct {
	Key string
}

// Prompt returns the fixed key, or an error when none is set.
func (s StaticSelector) Prompt(context.Context) (string, error) {
	if strings.TrimSpace(s.Key) == "" {
		return "", errors.New("no credential available")
	}
	return strings.TrimSpace(s.Key), nil
}
