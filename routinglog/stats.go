package routinglog

import (
	"bufio"
	"encoding/json"
	"os"
	"time"
)

// ModelStats is one model's contribution to the aggregate.
type ModelStats struct {
	Count   int     `json:"count"`
	CostUSD float64 `json:"costUsd"`
}

// Stats is the GET /stats?days=N response body.
type Stats struct {
	TotalRequests       int                   `json:"totalRequests"`
	TotalCostUSD        float64               `json:"totalCostUsd"`
	HypotheticalCostUSD float64               `json:"hypotheticalCostUsd"`
	ModelDistribution   map[string]ModelStats `json:"modelDistribution"`
	TierDistribution    map[string]int        `json:"tierDistribution"`
	AvgLatencyMs        float64               `json:"avgLatencyMs"`
	PeriodStart         time.Time             `json:"periodStart"`
	PeriodEnd           time.Time             `json:"periodEnd"`
}

// BaselineModel is the minimal view of a catalog entry the aggregator
// needs to compute the hypothetical-baseline cost; kept narrow so this
// package doesn't need to import catalog for its full ModelSpec.
type BaselineModel struct {
	ID                string
	InputCostPerMTok  float64
	OutputCostPerMTok float64
}

// Aggregate scans the log file at path for entries at or after since and
// produces Stats. baseline is the catalog's most-expensive model at call
// time, used for the hypothetical-cost comparison.
func Aggregate(path string, since time.Time, now time.Time, baseline BaselineModel) (Stats, error) {
	stats := Stats{
		ModelDistribution: make(map[string]ModelStats),
		TierDistribution:  make(map[string]int),
		PeriodStart:       since,
		PeriodEnd:         now,
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	defer f.Close()

	var latencySum int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if e.Timestamp.Before(since) {
			continue
		}

		stats.TotalRequests++
		stats.TotalCostUSD += e.EstimatedCostUSD
		stats.HypotheticalCostUSD += hypotheticalCost(e, baseline)
		latencySum += e.LatencyMs

		ms := stats.ModelDistribution[e.ModelID]
		ms.Count++
		ms.CostUSD += e.EstimatedCostUSD
		stats.ModelDistribution[e.ModelID] = ms

		stats.TierDistribution[e.Tier]++
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	if stats.TotalRequests > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(stats.TotalRequests)
	}
	return stats, nil
}

// hypotheticalCost is what e would have cost had it been routed to
// baseline instead of its actual model, at the same observed token split.
func hypotheticalCost(e Entry, baseline BaselineModel) float64 {
	return float64(e.InputTokens)/1_000_000*baseline.InputCostPerMTok +
		float64(e.OutputTokens)/1_000_000*baseline.OutputCostPerMTok
}
