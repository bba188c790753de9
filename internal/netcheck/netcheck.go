// Package netcheck provides the bounded connectivity probe used as a
// precondition before base-system provisioning. It is the only bounded
// wait in the installer; everything else blocks until it finishes.
package netcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultProbeURL is a lightweight endpoint that answers 204 when the
// network is reachable.
const DefaultProbeURL = "http://ping.archlinux.org"

const probeTimeout = 10 * time.Second

// Probe performs a short-timeout reachability test against url. A non-2xx
// answer still proves reachability; only transport failures are errors.
func Probe(ctx context.Context, url string) error {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = probeTimeout
	client.Logger = nil

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("building connectivity probe: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("no network connectivity (%s unreachable): %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("connectivity probe %s answered %d", url, resp.StatusCode)
	}
	return nil
}
