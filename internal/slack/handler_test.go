package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
)

// Mock directory mapping Slack IDs to employee IDs.
type mockDirectory struct {
	links map[string]string
}

func (m *mockDirectory) EmployeeIDBySlackID(slackID string) (string, error) {
	id, ok := m.links[slackID]
	if !ok {
		return "", slack.ErrUnknownSlackUser
	}
	return id, nil
}

// Mock transfer API capturing the submitted DTO.
type mockTransferAPI struct {
	lastSenderID string
	lastDTO      transfer.SendCoinsDTO
	result       *transfer.TransferResult
	submitError  error
}

func (m *mockTransferAPI) SubmitTransfer(ctx context.Context, senderID string, dto transfer.SendCoinsDTO, origin string) (*transfer.TransferResult, error) {
	m.lastSenderID = senderID
	m.lastDTO = dto
	if m.submitError != nil {
		return nil, m.submitError
	}
	return m.result, nil
}

type mockReactionAPI struct {
	result      *reaction.ToggleResult
	toggleError error
}

func (m *mockReactionAPI) Toggle(employeeID, transactionID string) (*reaction.ToggleResult, error) {
	if m.toggleError != nil {
		return nil, m.toggleError
	}
	return m.result, nil
}

type commandReply struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

var _ = Describe("SlackHandler", func() {
	var (
		handler   *slack.Handler
		directory *mockDirectory
		transfers *mockTransferAPI
		reactions *mockReactionAPI
	)

	BeforeEach(func() {
		directory = &mockDirectory{links: map[string]string{
			"UAAA": "alice",
			"UBBB": "bob",
		}}
		transfers = &mockTransferAPI{result: &transfer.TransferResult{
			Transfer:  &transfer.Transfer{ID: "txn-1", Coins: 20, Message: "thanks"},
			Remaining: 230,
		}}
		reactions = &mockReactionAPI{result: &reaction.ToggleResult{Liked: true, Count: 3}}
		handler = slack.NewHandler(directory, transfers, reactions)
	})

	postCommand := func(form url.Values) commandReply {
		req := httptest.NewRequest(http.MethodPost, "/slack/commands", nil)
		req.PostForm = form
		w := httptest.NewRecorder()
		handler.HandleCommand(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var reply commandReply
		Expect(json.NewDecoder(w.Body).Decode(&reply)).To(Succeed())
		return reply
	}

	Describe("HandleCommand", func() {
		It("should submit the transfer and announce it in channel", func() {
			// When
			reply := postCommand(url.Values{
				"user_id":    {"UAAA"},
				"command":    {"/thanks"},
				"text":       {"<@UBBB> 20 thanks for the deploy"},
				"trigger_id": {"trig-1"},
			})

			// Then
			Expect(reply.ResponseType).To(Equal("in_channel"))
			Expect(reply.Text).To(ContainSubstring("sent 20 coins"))
			Expect(reply.Text).To(ContainSubstring("230 left this week"))
			Expect(transfers.lastSenderID).To(Equal("alice"))
			Expect(transfers.lastDTO.ReceiverID).To(Equal("bob"))
			Expect(transfers.lastDTO.DedupKey).To(Equal("slack:trig-1"))
		})

		It("should reply with the usage hint on a malformed command", func() {
			// When
			reply := postCommand(url.Values{
				"user_id": {"UAAA"},
				"command": {"/thanks"},
				"text":    {"gibberish"},
			})

			// Then
			Expect(reply.ResponseType).To(Equal("ephemeral"))
			Expect(reply.Text).To(HavePrefix("Usage: /thanks"))
		})

		It("should tell an unlinked sender to link their account", func() {
			// When
			reply := postCommand(url.Values{
				"user_id": {"UZZZ"},
				"command": {"/thanks"},
				"text":    {"<@UBBB> 20 thanks"},
			})

			// Then
			Expect(reply.ResponseType).To(Equal("ephemeral"))
			Expect(reply.Text).To(ContainSubstring("not linked"))
		})

		It("should report a quota rejection ephemerally with the remainder", func() {
			// Given
			transfers.submitError = &transfer.QuotaExceededError{Remaining: 15}

			// When
			reply := postCommand(url.Values{
				"user_id": {"UAAA"},
				"command": {"/thanks"},
				"text":    {"<@UBBB> 20 thanks"},
			})

			// Then
			Expect(reply.ResponseType).To(Equal("ephemeral"))
			Expect(reply.Text).To(Equal("Not enough coins left this week: 15 remaining."))
		})
	})

	Describe("HandleInteraction", func() {
		postInteraction := func(payload string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/slack/interactions", nil)
			req.PostForm = url.Values{"payload": {payload}}
			w := httptest.NewRecorder()
			handler.HandleInteraction(w, req)
			return w
		}

		It("should toggle a like from the button value", func() {
			// When
			w := postInteraction(`{
				"type": "block_actions",
				"user": {"id": "UBBB"},
				"actions": [{"action_id": "toggle_like", "value": "txn-1"}]
			}`)

			// Then
			Expect(w.Code).To(Equal(http.StatusOK))
			var reply commandReply
			Expect(json.NewDecoder(w.Body).Decode(&reply)).To(Succeed())
			Expect(reply.Text).To(Equal("Liked. 3 likes now."))
		})

		It("should explain a self-like rejection", func() {
			// Given
			reactions.toggleError = reaction.ErrSelfLike

			// When
			w := postInteraction(`{
				"type": "block_actions",
				"user": {"id": "UAAA"},
				"actions": [{"action_id": "toggle_like", "value": "txn-1"}]
			}`)

			// Then
			var reply commandReply
			Expect(json.NewDecoder(w.Body).Decode(&reply)).To(Succeed())
			Expect(reply.Text).To(Equal("You cannot like your own transfer."))
		})

		It("should acknowledge unknown actions without calling anything", func() {
			// When
			w := postInteraction(`{
				"type": "block_actions",
				"user": {"id": "UBBB"},
				"actions": [{"action_id": "open_menu", "value": "x"}]
			}`)

			// Then
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())
		})
	})
})
