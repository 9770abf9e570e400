package riskrule

import (
	"testing"

	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
)

func order(instrument model.Instrument, price int64) *model.Order {
	return &model.Order{
		ID:         1,
		Instrument: instrument,
		Side:       model.SideBuy,
		Price:      price,
		Volume:     10,
	}
}

func TestTickSizeRule(t *testing.T) {
	rule := NewTickSizeRule(100)

	if err := rule.Check(order(model.InstrumentETF, 10000)); err != nil {
		t.Errorf("aligned price rejected: %v", err)
	}
	if err := rule.Check(order(model.InstrumentETF, 10050)); err == nil {
		t.Error("misaligned price accepted")
	}
}

func TestPriceBandRule(t *testing.T) {
	rule := NewPriceBandRule(model.InstrumentETF, 100, 20000)

	if err := rule.Check(order(model.InstrumentETF, 10000)); err != nil {
		t.Errorf("in-band price rejected: %v", err)
	}
	if err := rule.Check(order(model.InstrumentETF, 50)); err == nil {
		t.Error("price below floor accepted")
	}
	if err := rule.Check(order(model.InstrumentETF, 20100)); err == nil {
		t.Error("price above ceiling accepted")
	}

	// No band configured for the instrument: rule does not apply.
	if err := rule.Check(order(model.InstrumentFuture, 50)); err != nil {
		t.Errorf("unconfigured instrument should pass, got %v", err)
	}
}
