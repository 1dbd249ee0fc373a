package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_transfers_total",
		Help: "Accepted coin transfers by entry surface.",
	}, []string{"origin"})

	TransferRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_transfer_rejections_total",
		Help: "Rejected transfer attempts by error code.",
	}, []string{"code"})

	CoinsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coin_coins_sent_total",
		Help: "Total coins moved through accepted transfers.",
	})

	AnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_anomalies_total",
		Help: "Anomalies flagged by the rule-based detector.",
	}, []string{"kind"})

	LikeTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_like_toggles_total",
		Help: "Reaction toggles by resulting state.",
	}, []string{"state"})

	SlackDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_slack_deliveries_total",
		Help: "Slack message deliveries by outcome.",
	}, []string{"outcome"})
)
