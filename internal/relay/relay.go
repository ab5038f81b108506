// Package relay forwards opaque ciphertexts to the internal decryption
// service on behalf of browser clients. The shared decryption key never
// leaves server-side configuration.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"teleconsult-notifier/internal/logging"
)

const decryptTimeout = 10 * time.Second

// ErrDecryptionFailed wraps any upstream failure. The wrapped detail carries
// the upstream error text for diagnostics, never the shared key.
var ErrDecryptionFailed = errors.New("decryption failed")

// Relay proxies decryption requests to the internal decryption endpoint.
type Relay struct {
	apiURL string
	key    string
	client *http.Client
	logger *logging.Logger
}

func New(apiURL, key string, logger *logging.Logger) *Relay {
	return &Relay{
		apiURL: apiURL,
		key:    key,
		client: &http.Client{},
		logger: logger,
	}
}

// Decrypt forwards the ciphertext with the shared key and returns the
// recovered plaintext.
func (r *Relay) Decrypt(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"key":  r.key,
		"text": text,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, decryptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Errorf("Decryption upstream call failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.Errorf("Decryption upstream returned %d: %s", resp.StatusCode, body)
		return "", fmt.Errorf("%w: upstream status %d", ErrDecryptionFailed, resp.StatusCode)
	}

	return extractPlaintext(body), nil
}

// extractPlaintext pulls the decrypted value out of the upstream response.
// Known deployments of the decryption service have answered with different
// field names over time, so each is tried before falling back to the raw
// response body.
func extractPlaintext(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, name := range []string{"decryptedText", "text", "value"} {
			raw, ok := fields[name]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				return s
			}
		}
	}

	// Upstream may answer with a bare JSON string or plain text.
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}
