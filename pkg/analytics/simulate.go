package analytics

import (
	"fmt"
	"math"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
)

// Simulation scenario names accepted by Simulate.
const (
	ScenarioPriceChange = "price_change"
	ScenarioAdSpend     = "ad_spend"
)

// SimulationRequest describes a what-if scenario. Value is a percentage for
// price_change and a dollar amount for ad_spend.
type SimulationRequest struct {
	Scenario  string  `json:"scenario"`
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
}

// SimulationResult is the projected revenue impact of a scenario.
type SimulationResult struct {
	Scenario         string  `json:"scenario"`
	CurrentRevenue   float64 `json:"current_revenue"`
	SimulatedRevenue float64 `json:"simulated_revenue"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	ROI              float64 `json:"roi,omitempty"`
}

// Simulate projects revenue under a what-if scenario against the current
// total revenue. The elasticity assumptions are deliberately crude - this is
// a direction-of-change tool for the dashboard, not a pricing model.
func Simulate(currentRevenue float64, req SimulationRequest) (*SimulationResult, error) {
	if currentRevenue <= 0 {
		return nil, apperrors.ErrNoOrders
	}

	result := &SimulationResult{
		Scenario:       req.Scenario,
		CurrentRevenue: currentRevenue,
	}

	switch req.Scenario {
	case ScenarioPriceChange:
		// Assume 2% volume loss for every 1% of price movement in either direction.
		multiplier := 1 + req.Value/100
		volumeImpact := 1 - math.Abs(req.Value)*0.02
		if volumeImpact < 0 {
			volumeImpact = 0
		}
		result.SimulatedRevenue = currentRevenue * multiplier * volumeImpact

	case ScenarioAdSpend:
		// Assume every $100 of ad spend lifts revenue by 2%.
		lift := (req.Value / 100) * 0.02
		result.SimulatedRevenue = currentRevenue * (1 + lift)
		if req.Value > 0 {
			result.ROI = (result.SimulatedRevenue - currentRevenue) / req.Value
		}

	default:
		return nil, fmt.Errorf("unknown scenario %q", req.Scenario)
	}

	result.Change = result.SimulatedRevenue - currentRevenue
	result.ChangePercent = result.Change / currentRevenue * 100
	return result, nil
}
