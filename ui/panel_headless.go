//go:build headless

package ui

import (
	"errors"
	"log/slog"
)

// RunPanel fails: headless builds have no window.
func RunPanel(m *Model, logger *slog.Logger) error {
	m.Close()
	return errors.New("built without the panel (headless tag)")
}
