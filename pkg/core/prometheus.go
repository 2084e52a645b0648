package core

import (
	"github.com/nspcc-dev/sigma-go/pkg/core/mempool"
	"github.com/nspcc-dev/sigma-go/pkg/core/sigmastate"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	//blockHeight prometheus metric.
	blockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Current index of processed block",
			Name:      "current_block_height",
			Namespace: "sigmago",
		},
	)
	//mempoolTx prometheus metric.
	mempoolTx = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Mempool transactions",
			Name:      "mempool_tx",
			Namespace: "sigmago",
		},
	)
	coinGroups = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of non-empty coin groups",
			Name:      "coin_groups",
			Namespace: "sigmago",
		},
	)
	mintedCoins = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of coins minted on the active chain",
			Name:      "minted_coins",
			Namespace: "sigmago",
		},
	)
	usedSerials = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of serials spent on the active chain",
			Name:      "used_serials",
			Namespace: "sigmago",
		},
	)
	pendingSerials = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of serials claimed by mempool transactions",
			Name:      "pending_serials",
			Namespace: "sigmago",
		},
	)
	latestGroup = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Help:      "Coin group new mints go to",
			Name:      "latest_group_id",
			Namespace: "sigmago",
		},
		[]string{"denomination"},
	)
	poolSupply = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Help:      "Value minted or spent by mempool transactions in coins",
			Name:      "mempool_supply",
			Namespace: "sigmago",
		},
		[]string{"denomination", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		blockHeight,
		mempoolTx,
		coinGroups,
		mintedCoins,
		usedSerials,
		pendingSerials,
		latestGroup,
		poolSupply,
	)
}

func updateMempoolMetrics(n int) {
	mempoolTx.Set(float64(n))
}

func updatePendingMetrics(s *sigmastate.State) {
	pendingSerials.Set(float64(s.Stats().PendingSerials))
}

func updateStateMetrics(s *sigmastate.State, height uint32) {
	blockHeight.Set(float64(height))
	stats := s.Stats()
	coinGroups.Set(float64(stats.Groups))
	mintedCoins.Set(float64(stats.MintedCoins))
	usedSerials.Set(float64(stats.UsedSerials))
	pendingSerials.Set(float64(stats.PendingSerials))
	for _, d := range sigma.Denominations() {
		latestGroup.WithLabelValues(d.String()).Set(float64(s.LatestGroupID(d)))
	}
}

func updatePoolSupplyMetrics(p *mempool.Pool) {
	for _, d := range sigma.Denominations() {
		minted, spent := p.Supply(d)
		poolSupply.WithLabelValues(d.String(), "minted").Set(coins(minted.Uint64()))
		poolSupply.WithLabelValues(d.String(), "spent").Set(coins(spent.Uint64()))
	}
}

func coins(units uint64) float64 {
	return float64(units) / sigma.CoinUnit
}
