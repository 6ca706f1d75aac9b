package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/negotiation-tck/negotiation-tck/internal/message"
)

// ErrUnexpectedResponse indicates an outbound send received a response code
// outside the expected set for the call's error-expectation flag.
var ErrUnexpectedResponse = errors.New("unexpected response")

var httpClient = &http.Client{Timeout: 30 * time.Second}

// PostJSON sends a message and enforces the response-code policy: a 404 is
// always fatal because it signals a routing bug in the harness itself; any
// other non-2xx is fatal unless expectError is set and the code is 4xx; a
// 2xx when expectError is set means the negative assertion failed.
func PostJSON(url string, msg message.Message, expectError bool) (message.Message, error) {
	data, err := message.Serialize(msg)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode, expectError); err != nil {
		return nil, err
	}
	if expectError {
		return nil, nil
	}
	return parseBody(resp.Body)
}

// GetJSON retrieves a message; any non-2xx response is fatal.
func GetJSON(url string) (message.Message, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(url, resp.StatusCode, false); err != nil {
		return nil, err
	}
	return parseBody(resp.Body)
}

func checkStatus(url string, code int, expectError bool) error {
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: 404 for %s", ErrUnexpectedResponse, url)
	}
	success := code >= 200 && code < 300
	if expectError {
		if success {
			return fmt.Errorf("%w: expected an error response for %s, got %d", ErrUnexpectedResponse, url, code)
		}
		if code < 400 || code >= 500 {
			return fmt.Errorf("%w: %d for %s", ErrUnexpectedResponse, code, url)
		}
		return nil
	}
	if !success {
		return fmt.Errorf("%w: %d for %s", ErrUnexpectedResponse, code, url)
	}
	return nil
}

func parseBody(body io.Reader) (message.Message, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return message.Parse(data)
}
