package dto

import "rigrent/internal/domain/pricing"

type PricingBreakdown struct {
	Days             int      `json:"days"`
	DailyRate        MoneyDTO `json:"daily_rate"`
	DailySubtotal    MoneyDTO `json:"daily_subtotal"`
	DeliveryFee      MoneyDTO `json:"delivery_fee"`
	DeliveryDiscount MoneyDTO `json:"delivery_discount"`
	DeliveryCharge   MoneyDTO `json:"delivery_charge"`
	ServiceChoice    string   `json:"service_choice"`
	ServiceUnit      string   `json:"service_unit,omitempty"`
	ServiceRate      MoneyDTO `json:"service_rate"`
	ServiceQuantity  int      `json:"service_quantity"`
	ServiceCharge    MoneyDTO `json:"service_charge"`
	AddOnCharge      MoneyDTO `json:"add_on_charge"`
	PreFeeTotal      MoneyDTO `json:"pre_fee_total"`
	ServiceFee       MoneyDTO `json:"service_fee"`
	Total            MoneyDTO `json:"total"`
	Deposit          MoneyDTO `json:"deposit"`
	TotalWithDeposit MoneyDTO `json:"total_with_deposit"`
	HourlyEstimate   bool     `json:"hourly_estimate"`
}

func MapBreakdown(b pricing.Breakdown) PricingBreakdown {
	return PricingBreakdown{
		Days:             b.Days,
		DailyRate:        MapMoney(b.DailyRate),
		DailySubtotal:    MapMoney(b.DailySubtotal),
		DeliveryFee:      MapMoney(b.DeliveryFee),
		DeliveryDiscount: MapMoney(b.DeliveryDiscount),
		DeliveryCharge:   MapMoney(b.DeliveryCharge),
		ServiceChoice:    string(b.ServiceChoice),
		ServiceUnit:      string(b.ServiceUnit),
		ServiceRate:      MapMoney(b.ServiceRate),
		ServiceQuantity:  b.ServiceQuantity,
		ServiceCharge:    MapMoney(b.ServiceCharge),
		AddOnCharge:      MapMoney(b.AddOnCharge),
		PreFeeTotal:      MapMoney(b.PreFeeTotal),
		ServiceFee:       MapMoney(b.ServiceFee),
		Total:            MapMoney(b.Total),
		Deposit:          MapMoney(b.Deposit),
		TotalWithDeposit: MapMoney(b.TotalWithDeposit),
		HourlyEstimate:   b.HourlyEstimate,
	}
}
