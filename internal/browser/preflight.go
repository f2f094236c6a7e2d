package browser

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Preflight verifies the application answers at baseURL before any browser
// is launched, so a down or misaddressed target fails in seconds instead of
// after a Chrome startup. Auth challenges (401/403) and client errors count
// as alive; only transport failures and 5xx responses fail the check.
func Preflight(baseURL string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2)

	resp, err := client.R().Get(baseURL)
	if err != nil {
		return fmt.Errorf("preflight %s: %w", baseURL, err)
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("preflight %s: HTTP %d", baseURL, resp.StatusCode())
	}
	return nil
}
