package model

import "time"

// Prediction is one recorded signal cycle.
type Prediction struct {
	ID                  string             `json:"id"`
	Timestamp           time.Time          `json:"timestamp"`
	Asset               string             `json:"asset"`
	Price               float64            `json:"current_price"`
	PredictedVolatility float64            `json:"predicted_volatility"`
	Signal              Signal             `json:"signal"`
	Policy              string             `json:"policy"`
	ThresholdLow        float64            `json:"threshold_low"`
	ThresholdHigh       float64            `json:"threshold_high"`
	Model               string             `json:"model"`
	ModelParams         map[string]float64 `json:"model_params,omitempty"`
}

// Observation converts the prediction into a simulator input.
func (p Prediction) Observation() Observation {
	return Observation{Timestamp: p.Timestamp, Price: p.Price, Signal: p.Signal}
}

// Observations converts predictions in order.
func Observations(preds []Prediction) []Observation {
	obs := make([]Observation, len(preds))
	for i, p := range preds {
		obs[i] = p.Observation()
	}
	return obs
}
