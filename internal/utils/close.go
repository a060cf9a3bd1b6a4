package utils

import (
	"io"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs any error under name.
// Use on shutdown paths where close errors should be tracked.
func MustClose(c io.Closer, name string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("component", name), logger.Error(err))
	}
}
