package riskrule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

type priceBand struct {
	Floor int64 `json:"floor"`
	Ceil  int64 `json:"ceil"`
}

// PriceBandRule rejects orders priced outside the admissible band for their
// instrument.
type PriceBandRule struct {
	bands map[model.Instrument]priceBand
}

func NewPriceBandRule(instrument model.Instrument, floor, ceil int64) *PriceBandRule {
	return &PriceBandRule{
		bands: map[model.Instrument]priceBand{
			instrument: {Floor: floor, Ceil: ceil},
		},
	}
}

// NewPriceBandRuleFromFile loads per-instrument bands from a JSON file.
func NewPriceBandRuleFromFile(path string) (*PriceBandRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bands map[model.Instrument]priceBand
	if err := json.Unmarshal(data, &bands); err != nil {
		return nil, err
	}

	return &PriceBandRule{bands: bands}, nil
}

// AddBand registers or overrides a band for one instrument.
func (r *PriceBandRule) AddBand(instrument model.Instrument, floor, ceil int64) {
	r.bands[instrument] = priceBand{Floor: floor, Ceil: ceil}
}

func (r *PriceBandRule) Check(order *model.Order) error {
	band, ok := r.bands[order.Instrument]
	if !ok { // no config -> no rule
		return nil
	}
	if order.Price < band.Floor || order.Price > band.Ceil {
		return fmt.Errorf("price %d outside band [%d, %d]", order.Price, band.Floor, band.Ceil)
	}
	return nil
}
