package backtest

import "kite-alert-backtest/internal/strategy"

// Statistics summarises the closed trades of a ledger. Open and
// non-executed trades only contribute to their own counters.
type Statistics struct {
	TotalAlerts   int
	TotalTrades   int
	OpenTrades    int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AvgProfit     float64
	AvgLoss       float64
	TotalPnL      float64
}

// ComputeStats partitions closed trades at pnl > 0 (win) and pnl < 0 (loss).
// A trade with exactly zero P&L counts towards TotalTrades only.
func ComputeStats(trades []strategy.Trade) Statistics {
	s := Statistics{TotalAlerts: len(trades)}

	var winSum, lossSum float64
	for _, t := range trades {
		switch t.Status {
		case strategy.StatusOpen:
			s.OpenTrades++
			continue
		case strategy.StatusClosed:
		default:
			continue
		}

		s.TotalTrades++
		s.TotalPnL += t.PnLPercent
		switch {
		case t.PnLPercent > 0:
			s.WinningTrades++
			winSum += t.PnLPercent
		case t.PnLPercent < 0:
			s.LosingTrades++
			lossSum += t.PnLPercent
		}
	}

	if s.TotalTrades == 0 {
		return s
	}
	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	if s.WinningTrades > 0 {
		s.AvgProfit = winSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = lossSum / float64(s.LosingTrades)
	}
	return s
}
