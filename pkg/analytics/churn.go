package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// churnFallback is the probability assigned to customers with no order
// history: maximal risk without claiming certainty, and always High.
const churnFallback = 0.8

// RFM weights. Recency dominates: a customer who stopped buying is churning
// no matter how much they used to spend.
const (
	recencyWeight   = 0.5
	frequencyWeight = 0.3
	monetaryWeight  = 0.2
)

// ScoreCustomers computes RFM-based churn probabilities for every customer.
// Recency risk saturates at recencyWindowDays since the last purchase,
// measured against the latest order date in the dataset (not wall-clock time,
// so replaying an old dataset scores identically). Frequency and monetary
// scores are min-max normalized within the current customer population.
// Results are sorted by descending churn probability, ties by customer_id.
func ScoreCustomers(customers []models.Customer, orders []models.Order, recencyWindowDays int) []models.CustomerScore {
	if len(customers) == 0 {
		return nil
	}
	if recencyWindowDays <= 0 {
		recencyWindowDays = 180
	}

	type aggregate struct {
		lastOrder  time.Time
		orderCount int
		totalSpent float64
	}
	aggregates := make(map[string]*aggregate)
	var asOf time.Time
	for _, order := range orders {
		agg, ok := aggregates[order.CustomerID]
		if !ok {
			agg = &aggregate{}
			aggregates[order.CustomerID] = agg
		}
		agg.orderCount++
		agg.totalSpent += order.Total
		if order.OrderDate.After(agg.lastOrder) {
			agg.lastOrder = order.OrderDate
		}
		if order.OrderDate.After(asOf) {
			asOf = order.OrderDate
		}
	}

	// Normalization bounds over customers that have orders.
	minFreq, maxFreq := math.Inf(1), math.Inf(-1)
	minSpent, maxSpent := math.Inf(1), math.Inf(-1)
	for _, c := range customers {
		agg, ok := aggregates[c.CustomerID]
		if !ok {
			continue
		}
		minFreq = math.Min(minFreq, float64(agg.orderCount))
		maxFreq = math.Max(maxFreq, float64(agg.orderCount))
		minSpent = math.Min(minSpent, agg.totalSpent)
		maxSpent = math.Max(maxSpent, agg.totalSpent)
	}

	scores := make([]models.CustomerScore, 0, len(customers))
	for _, c := range customers {
		score := models.CustomerScore{
			ID:         uuid.New(),
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Email:      c.Email,
			JoinDate:   c.JoinDate,
		}

		agg, ok := aggregates[c.CustomerID]
		if !ok {
			score.ChurnProbability = churnFallback
			score.RiskLevel = models.RiskLevelFor(score.ChurnProbability)
			scores = append(scores, score)
			continue
		}

		lastOrder := agg.lastOrder
		score.LastPurchaseDate = &lastOrder
		score.OrderCount = agg.orderCount
		score.TotalSpent = agg.totalSpent

		daysSince := asOf.Sub(agg.lastOrder).Hours() / 24
		recencyRisk := math.Min(daysSince/float64(recencyWindowDays), 1.0)

		frequencyScore := minMax(float64(agg.orderCount), minFreq, maxFreq)
		monetaryScore := minMax(agg.totalSpent, minSpent, maxSpent)

		probability := recencyWeight*recencyRisk +
			frequencyWeight*(1-frequencyScore) +
			monetaryWeight*(1-monetaryScore)
		score.ChurnProbability = clamp01(probability)
		score.RiskLevel = models.RiskLevelFor(score.ChurnProbability)

		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].ChurnProbability != scores[j].ChurnProbability {
			return scores[i].ChurnProbability > scores[j].ChurnProbability
		}
		return scores[i].CustomerID < scores[j].CustomerID
	})

	return scores
}

// minMax scales v into [0,1] within [lo,hi]. A degenerate range (single
// customer, or everyone identical) scores 1.0 - the best - so a lone
// customer is never penalized by their own normalization bounds.
func minMax(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1.0
	}
	return (v - lo) / (hi - lo)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
