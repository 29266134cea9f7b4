package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/cowinbot/core/telegram/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for Telegram Bot API calls.
// Long polling holds requests open, so the overall timeout stays above the poll timeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	return netutil.NewHTTPClient(netutil.ClientOptions{
		ResponseHeader: pollTimeout + 5*time.Second,
		Timeout:        pollTimeout + 20*time.Second,
		Retries:        3,
		Backoff:        2 * time.Second,
	})
}
