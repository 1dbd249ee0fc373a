package slack

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
)

// signatureWindow bounds the accepted clock skew on signed requests.
const signatureWindow = 5 * time.Minute

// VerifySignature authenticates requests using Slack's v0 signing scheme:
// hex(HMAC-SHA256(secret, "v0:<timestamp>:<body>")). Requests older than
// the window are rejected to stop replays.
func VerifySignature(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := logger.From(r.Context())

			timestampStr := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")
			if timestampStr == "" || signature == "" {
				lg.Warn("slack request missing signature headers")
				http.Error(w, "missing signature", http.StatusUnauthorized)
				return
			}

			timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
			if err != nil {
				http.Error(w, "invalid timestamp", http.StatusUnauthorized)
				return
			}
			age := time.Since(time.Unix(timestamp, 0))
			if age > signatureWindow || age < -signatureWindow {
				lg.Warn("slack request outside signature window", "age", age.String())
				http.Error(w, "stale request", http.StatusUnauthorized)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "cannot read body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(signingSecret))
			fmt.Fprintf(mac, "v0:%s:%s", timestampStr, body)
			expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

			if !hmac.Equal([]byte(expected), []byte(signature)) {
				lg.Warn("slack signature mismatch")
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
