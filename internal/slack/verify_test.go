package slack_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
)

func signBody(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

var _ = Describe("VerifySignature", func() {
	const secret = "test-signing-secret"

	var (
		handler   http.Handler
		seenBody  string
		nextCalls int
	)

	BeforeEach(func() {
		seenBody = ""
		nextCalls = 0
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalls++
			b, _ := io.ReadAll(r.Body)
			seenBody = string(b)
			w.WriteHeader(http.StatusOK)
		})
		handler = slack.VerifySignature(secret)(next)
	})

	signedRequest := func(body, timestamp, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/slack/commands", strings.NewReader(body))
		if timestamp != "" {
			req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		}
		if signature != "" {
			req.Header.Set("X-Slack-Signature", signature)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	Context("with a valid signature", func() {
		It("should pass the request through with the body intact", func() {
			// Given
			body := "command=%2Fthanks&text=hello"
			ts := strconv.FormatInt(time.Now().Unix(), 10)

			// When
			rec := signedRequest(body, ts, signBody(secret, ts, body))

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(nextCalls).To(Equal(1))
			Expect(seenBody).To(Equal(body))
		})
	})

	Context("with missing headers", func() {
		It("should reject with 401", func() {
			// When
			rec := signedRequest("body", "", "")

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(nextCalls).To(Equal(0))
		})
	})

	Context("with a stale timestamp", func() {
		It("should reject a request older than the replay window", func() {
			// Given
			body := "command=%2Fthanks"
			ts := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)

			// When
			rec := signedRequest(body, ts, signBody(secret, ts, body))

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(nextCalls).To(Equal(0))
		})
	})

	Context("with a wrong signature", func() {
		It("should reject a signature computed with another secret", func() {
			// Given
			body := "command=%2Fthanks"
			ts := strconv.FormatInt(time.Now().Unix(), 10)

			// When
			rec := signedRequest(body, ts, signBody("other-secret", ts, body))

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(nextCalls).To(Equal(0))
		})

		It("should reject a tampered body", func() {
			// Given
			ts := strconv.FormatInt(time.Now().Unix(), 10)
			signature := signBody(secret, ts, "original")

			// When
			rec := signedRequest("tampered", ts, signature)

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
