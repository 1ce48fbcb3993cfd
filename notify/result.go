// notify/result.go
package notify

import (
	"fmt"
	"time"
)

// Channel names used in results and metrics.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

const defaultTimeout = 15 * time.Second

// timeoutOr returns d, or the default for an unset timeout.
func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

// Result is the outcome of one delivery attempt. Senders report failures
// here instead of returning errors so the caller can move on to the next
// channel.
type Result struct {
	Channel    string `json:"channel"`
	OK         bool   `json:"ok"`
	Skipped    bool   `json:"skipped,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	ID         string `json:"id,omitempty"`
	Message    string `json:"message"`
}

func (r Result) String() string {
	switch {
	case r.Skipped:
		return fmt.Sprintf("%s skipped: %s", r.Channel, r.Message)
	case r.OK:
		return fmt.Sprintf("%s delivered (status %d): %s", r.Channel, r.StatusCode, r.Message)
	default:
		return fmt.Sprintf("%s failed (status %d): %s", r.Channel, r.StatusCode, r.Message)
	}
}

func failed(channel string, status int, format string, args ...interface{}) Result {
	return Result{Channel: channel, StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

// Skipped builds the result of a channel that was not attempted.
func Skipped(channel, reason string) Result {
	return Result{Channel: channel, Skipped: true, Message: reason}
}
