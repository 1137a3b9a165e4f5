// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/korachain/kora/metrics"
)

var metricTxPoolGauge = metrics.LazyLoad(func() metrics.GaugeVecMeter {
	return metrics.GaugeVec("txpool_current_tx_count", []string{"source"})
})

var metricPendingGauge = metrics.LazyLoad(func() metrics.GaugeMeter {
	return metrics.Gauge("txpool_pending_tx_count")
})

var metricBadTxCount = metrics.LazyLoad(func() metrics.CountMeter {
	return metrics.Counter("txpool_bad_tx_count")
})
