package slack_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
)

var _ = Describe("ParseCommand", func() {
	Context("with a full command", func() {
		It("should parse the mention, amount and message", func() {
			// When
			cmd, err := slack.ParseCommand("<@U12345ABC> 20 thanks for the deploy help")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.ReceiverSlackID).To(Equal("U12345ABC"))
			Expect(cmd.Coins).To(Equal(20))
			Expect(cmd.Message).To(Equal("thanks for the deploy help"))
		})

		It("should accept the mention form with a display name", func() {
			// When
			cmd, err := slack.ParseCommand("<@U12345ABC|ayu> 15 great demo")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.ReceiverSlackID).To(Equal("U12345ABC"))
			Expect(cmd.Coins).To(Equal(15))
		})
	})

	Context("without an amount", func() {
		It("should default to five coins", func() {
			// When
			cmd, err := slack.ParseCommand("<@U12345ABC> thanks for everything")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.Coins).To(Equal(slack.DefaultCommandCoins))
			Expect(cmd.Message).To(Equal("thanks for everything"))
		})

		It("should treat a message starting with digits as the message, not the amount", func() {
			// Given: "10" is followed by nothing else, so it must be the message
			cmd, err := slack.ParseCommand("<@U12345ABC> 10")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.Coins).To(Equal(slack.DefaultCommandCoins))
			Expect(cmd.Message).To(Equal("10"))
		})
	})

	Context("with surrounding whitespace", func() {
		It("should trim before parsing", func() {
			// When
			cmd, err := slack.ParseCommand("   <@U12345ABC> 5 thanks   ")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd.Message).To(Equal("thanks"))
		})
	})

	Context("with malformed input", func() {
		It("should reject text without a mention", func() {
			// When
			_, err := slack.ParseCommand("ayu 20 thanks")

			// Then
			Expect(err).To(MatchError(slack.ErrMalformedCommand))
		})

		It("should reject a mention with no message", func() {
			// When
			_, err := slack.ParseCommand("<@U12345ABC>")

			// Then
			Expect(err).To(MatchError(slack.ErrMalformedCommand))
		})

		It("should reject empty text", func() {
			// When
			_, err := slack.ParseCommand("")

			// Then
			Expect(err).To(MatchError(slack.ErrMalformedCommand))
		})
	})
})
