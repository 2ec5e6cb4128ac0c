package httptransport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dogmatiq/courier"
)

// mediaType is the MIME media-type for JSON-RPC requests when delivered over
// HTTP.
const mediaType = "application/json"

// exchanger is the courier.Exchanger that performs the HTTP request.
type exchanger struct {
	address   string
	timeout   time.Duration
	client    *http.Client
	interpret []courier.InterpretOption
}

func (x *exchanger) Exchange(ctx context.Context, payload string) courier.Outcome {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		x.address,
		strings.NewReader(payload),
	)
	if err != nil {
		// CODE COVERAGE: The address is validated by New() and the method is
		// hardcoded.
		panic(err)
	}

	req.Header.Set("Content-Type", mediaType)

	res, err := x.client.Do(req)
	if err != nil {
		return courier.Outcome{
			Err: &courier.TransportError{Cause: err},
		}
	}
	defer res.Body.Close()

	// The body of an unsuccessful response is never interpreted, even if it
	// contains a JSON-RPC error.
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return courier.Outcome{
			Err: &courier.TransportError{StatusCode: res.StatusCode},
		}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return courier.Outcome{
			Err: &courier.TransportError{
				StatusCode: res.StatusCode,
				Cause:      fmt.Errorf("unable to read HTTP response body: %w", err),
			},
		}
	}

	return courier.InterpretResponse(body, x.interpret...)
}

// newHTTPClient returns an HTTP client that applies timeout both to
// establishing a connection and to the request as a whole.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
		},
		Timeout: timeout,
	}
}
