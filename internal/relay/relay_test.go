package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func upstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestDecrypt(t *testing.T) {
	t.Run("Forwards Key And Text", func(t *testing.T) {
		var got map[string]string
		srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(map[string]string{"decryptedText": "plain"})
		})

		r := New(srv.URL, "shared-secret", testLogger())
		out, err := r.Decrypt(context.Background(), "ciphertext")
		require.NoError(t, err)
		assert.Equal(t, "plain", out)
		assert.Equal(t, "shared-secret", got["key"])
		assert.Equal(t, "ciphertext", got["text"])
	})

	t.Run("Falls Back Through Known Field Names", func(t *testing.T) {
		cases := []struct {
			name string
			body string
			want string
		}{
			{"decryptedText", `{"decryptedText":"a"}`, "a"},
			{"text", `{"text":"b"}`, "b"},
			{"value", `{"value":"c"}`, "c"},
			{"decryptedText wins over text", `{"text":"b","decryptedText":"a"}`, "a"},
			{"bare json string", `"d"`, "d"},
			{"raw body", `plain-response`, "plain-response"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(tc.body))
				})
				r := New(srv.URL, "k", testLogger())
				out, err := r.Decrypt(context.Background(), "x")
				require.NoError(t, err)
				assert.Equal(t, tc.want, out)
			})
		}
	})

	t.Run("Upstream Error", func(t *testing.T) {
		srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		r := New(srv.URL, "shared-secret", testLogger())

		_, err := r.Decrypt(context.Background(), "x")
		require.ErrorIs(t, err, ErrDecryptionFailed)
		assert.NotContains(t, err.Error(), "shared-secret", "error must never leak the key")
	})

	t.Run("Upstream Unreachable", func(t *testing.T) {
		r := New("http://127.0.0.1:1", "k", testLogger())
		_, err := r.Decrypt(context.Background(), "x")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}
