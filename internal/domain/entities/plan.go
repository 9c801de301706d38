package entities

// Plan is a subscription tier with its monthly price
type Plan struct {
	Tier     SubscriptionTier `json:"tier"`
	Price    Money            `json:"price"`
	Interval string           `json:"interval"`
}

var planCatalogue = []Plan{
	{Tier: TierBasic, Price: Dollars(49, 99), Interval: "month"},
	{Tier: TierPremium, Price: Dollars(99, 99), Interval: "month"},
	{Tier: TierEnterprise, Price: Dollars(199, 99), Interval: "month"},
}

// Plans returns the catalogue ordered from cheapest to most expensive
func Plans() []Plan {
	return append([]Plan(nil), planCatalogue...)
}

// PlanFor looks up the catalogue entry for a tier
func PlanFor(tier SubscriptionTier) (Plan, bool) {
	for _, p := range planCatalogue {
		if p.Tier == tier {
			return p, true
		}
	}
	return Plan{}, false
}
