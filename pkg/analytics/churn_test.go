package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

func customer(id string) models.Customer {
	return models.Customer{
		CustomerID: id,
		Name:       "Customer " + id,
		Email:      id + "@example.com",
		JoinDate:   day(2023, 1, 1),
	}
}

func customerOrder(customerID string, date time.Time, total float64) models.Order {
	return models.Order{
		CustomerID: customerID,
		ProductID:  "P1",
		OrderDate:  date,
		Quantity:   1,
		Price:      total,
		Total:      total,
	}
}

func TestScoreCustomers_Empty(t *testing.T) {
	assert.Nil(t, ScoreCustomers(nil, nil, 180))
}

func TestScoreCustomers_NoOrdersFallback(t *testing.T) {
	scores := ScoreCustomers([]models.Customer{customer("C1")}, nil, 180)
	require.Len(t, scores, 1)

	assert.Equal(t, 0.8, scores[0].ChurnProbability)
	assert.Equal(t, models.RiskHigh, scores[0].RiskLevel)
	assert.Nil(t, scores[0].LastPurchaseDate)
	assert.Equal(t, 0, scores[0].OrderCount)
	assert.Equal(t, 0.0, scores[0].TotalSpent)
}

func TestScoreCustomers_ProbabilityBounds(t *testing.T) {
	customers := []models.Customer{customer("C1"), customer("C2"), customer("C3")}
	orders := []models.Order{
		customerOrder("C1", day(2024, 1, 1), 100),
		customerOrder("C1", day(2024, 6, 1), 250),
		customerOrder("C2", day(2023, 1, 15), 40),
		customerOrder("C3", day(2024, 5, 20), 900),
	}

	scores := ScoreCustomers(customers, orders, 180)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s.ChurnProbability, 0.0)
		assert.LessOrEqual(t, s.ChurnProbability, 1.0)
		assert.Equal(t, models.RiskLevelFor(s.ChurnProbability), s.RiskLevel)
	}
}

func TestScoreCustomers_LongInactiveIsHighRisk(t *testing.T) {
	// C1's last purchase is 400 days before the dataset's latest order, far
	// past the 180-day window: recency risk saturates at 1.0. With the worst
	// frequency and spend in the population the probability reaches 1.0.
	customers := []models.Customer{customer("C1"), customer("C2")}
	orders := []models.Order{
		customerOrder("C1", day(2023, 1, 1), 50),
		customerOrder("C2", day(2024, 2, 1), 500),
		customerOrder("C2", day(2024, 2, 4), 500),
		customerOrder("C2", day(2024, 2, 5), 500),
	}

	scores := ScoreCustomers(customers, orders, 180)
	require.Len(t, scores, 2)

	// Sorted by descending probability, so C1 comes first.
	assert.Equal(t, "C1", scores[0].CustomerID)
	assert.Equal(t, 1.0, scores[0].ChurnProbability)
	assert.Equal(t, models.RiskHigh, scores[0].RiskLevel)

	assert.Equal(t, "C2", scores[1].CustomerID)
	assert.Equal(t, 0.0, scores[1].ChurnProbability)
	assert.Equal(t, models.RiskLow, scores[1].RiskLevel)
}

func TestScoreCustomers_SingleCustomerNotPenalized(t *testing.T) {
	// A lone active customer gets the degenerate-range normalization of 1.0
	// for frequency and spend, leaving only the recency term.
	customers := []models.Customer{customer("C1")}
	orders := []models.Order{
		customerOrder("C1", day(2024, 1, 1), 100),
		customerOrder("C1", day(2024, 1, 10), 100),
	}

	scores := ScoreCustomers(customers, orders, 180)
	require.Len(t, scores, 1)

	// Last purchase equals the dataset max date: recency risk 0.
	assert.Equal(t, 0.0, scores[0].ChurnProbability)
	assert.Equal(t, models.RiskLow, scores[0].RiskLevel)
}

func TestScoreCustomers_RecencyAgainstDatasetMaxDate(t *testing.T) {
	// Half the window elapsed between C1's last order and the dataset max:
	// probability = 0.5*0.5 (recency) with best-in-population F and M terms.
	customers := []models.Customer{customer("C1"), customer("C2")}
	orders := []models.Order{
		customerOrder("C1", day(2024, 1, 1), 100),
		customerOrder("C2", day(2024, 3, 31), 100),
	}

	scores := ScoreCustomers(customers, orders, 180)
	require.Len(t, scores, 2)

	var c1 models.CustomerScore
	for _, s := range scores {
		if s.CustomerID == "C1" {
			c1 = s
		}
	}
	// 90 days elapsed of 180: recency risk 0.5. Frequency and spend are tied
	// across the population, so both normalize to 1 and contribute nothing.
	assert.InDelta(t, 0.25, c1.ChurnProbability, 1e-9)
}

func TestScoreCustomers_Aggregates(t *testing.T) {
	customers := []models.Customer{customer("C1")}
	orders := []models.Order{
		customerOrder("C1", day(2024, 1, 5), 100),
		customerOrder("C1", day(2024, 2, 10), 150),
	}

	scores := ScoreCustomers(customers, orders, 180)
	require.Len(t, scores, 1)

	assert.Equal(t, 2, scores[0].OrderCount)
	assert.Equal(t, 250.0, scores[0].TotalSpent)
	require.NotNil(t, scores[0].LastPurchaseDate)
	assert.Equal(t, day(2024, 2, 10), *scores[0].LastPurchaseDate)
}

func TestScoreCustomers_SortedByProbabilityThenID(t *testing.T) {
	customers := []models.Customer{customer("C3"), customer("C1"), customer("C2")}

	// No orders at all: everyone gets the 0.8 fallback, so ordering falls
	// back to customer_id.
	scores := ScoreCustomers(customers, nil, 180)
	require.Len(t, scores, 3)
	assert.Equal(t, "C1", scores[0].CustomerID)
	assert.Equal(t, "C2", scores[1].CustomerID)
	assert.Equal(t, "C3", scores[2].CustomerID)
}
