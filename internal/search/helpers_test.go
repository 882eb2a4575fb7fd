// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"
	"time"

	"github.com/pdiddy/research-radar/internal/httputil"
)

// quickRetries shrinks the 429 backoff so retry paths run instantly.
func quickRetries(t *testing.T) func() {
	t.Helper()
	orig := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	return func() { httputil.RetryBaseDelay = orig }
}
