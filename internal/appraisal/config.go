package appraisal

// EngineConfig collects every heuristic constant the engine uses so tests and
// callers can override them in one place. DefaultConfig returns the documented
// defaults; none of these figures are asserted to be industry-normative.
type EngineConfig struct {
	// Validation. High-weight warnings (stale sales, missing cap rate
	// support, thin comparable sets) count HighWeightWarningMultiplier times
	// toward the per-warning penalty.
	ErrorPenalty                int     `yaml:"error_penalty" json:"error_penalty"`
	WarningPenalty              int     `yaml:"warning_penalty" json:"warning_penalty"`
	HighWeightWarningMultiplier int     `yaml:"high_weight_warning_multiplier" json:"high_weight_warning_multiplier"`
	PricePerAreaMin             float64 `yaml:"price_per_area_min" json:"price_per_area_min"`
	PricePerAreaMax             float64 `yaml:"price_per_area_max" json:"price_per_area_max"`
	CapRateBandMin              float64 `yaml:"cap_rate_band_min" json:"cap_rate_band_min"`
	CapRateBandMax              float64 `yaml:"cap_rate_band_max" json:"cap_rate_band_max"`
	ExpenseRatioBandMin         float64 `yaml:"expense_ratio_band_min" json:"expense_ratio_band_min"`
	ExpenseRatioBandMax         float64 `yaml:"expense_ratio_band_max" json:"expense_ratio_band_max"`
	MaxConstructionAge          int     `yaml:"max_construction_age" json:"max_construction_age"`

	// Adjustment limits.
	SingleAdjustmentFlag float64 `yaml:"single_adjustment_flag" json:"single_adjustment_flag"`
	TotalAdjustmentFlag  float64 `yaml:"total_adjustment_flag" json:"total_adjustment_flag"`
	NetAdjustmentCap     float64 `yaml:"net_adjustment_cap" json:"net_adjustment_cap"`

	// Comparable filtering and selection.
	MinComparables      int     `yaml:"min_comparables" json:"min_comparables"`
	MaxSaleAgeMonths    int     `yaml:"max_sale_age_months" json:"max_sale_age_months"`
	SizeRatioMin        float64 `yaml:"size_ratio_min" json:"size_ratio_min"`
	SizeRatioMax        float64 `yaml:"size_ratio_max" json:"size_ratio_max"`
	SelectMin           int     `yaml:"select_min" json:"select_min"`
	SelectMax           int     `yaml:"select_max" json:"select_max"`
	RankWeightSimilar   float64 `yaml:"rank_weight_similarity" json:"rank_weight_similarity"`
	RankWeightQuality   float64 `yaml:"rank_weight_quality" json:"rank_weight_quality"`
	RankWeightRisk      float64 `yaml:"rank_weight_risk" json:"rank_weight_risk"`
	RankWeightSupport   float64 `yaml:"rank_weight_support" json:"rank_weight_support"`
	RiskFactorsHigh     int     `yaml:"risk_factors_high" json:"risk_factors_high"`
	RiskFactorsModerate int     `yaml:"risk_factors_moderate" json:"risk_factors_moderate"`

	// Income capitalization.
	CapRateFloor      float64 `yaml:"cap_rate_floor" json:"cap_rate_floor"`
	CapRateCeiling    float64 `yaml:"cap_rate_ceiling" json:"cap_rate_ceiling"`
	DCFYears          int     `yaml:"dcf_years" json:"dcf_years"`
	TerminalCapSpread float64 `yaml:"terminal_cap_spread" json:"terminal_cap_spread"`
	DiscountSpread    float64 `yaml:"discount_spread" json:"discount_spread"`

	// Cost approach.
	ParkingCostPerSpace float64 `yaml:"parking_cost_per_space" json:"parking_cost_per_space"`
	SoftCostPct         float64 `yaml:"soft_cost_pct" json:"soft_cost_pct"`
	ProfitPct           float64 `yaml:"profit_pct" json:"profit_pct"`
	LandSizeBand        float64 `yaml:"land_size_band" json:"land_size_band"`

	// Reconciliation.
	BaseWeights            map[PropertyType]ApproachWeights `yaml:"base_weights" json:"base_weights"`
	FallbackWeights        ApproachWeights                  `yaml:"fallback_weights" json:"fallback_weights"`
	PreferredApproachBoost float64                          `yaml:"preferred_approach_boost" json:"preferred_approach_boost"`
	VarianceAcceptable     float64                          `yaml:"variance_acceptable" json:"variance_acceptable"`
	RangeBasePct           float64                          `yaml:"range_base_pct" json:"range_base_pct"`
	RangeStepPct           float64                          `yaml:"range_step_pct" json:"range_step_pct"`
	RangeCapPct            float64                          `yaml:"range_cap_pct" json:"range_cap_pct"`

	Defaults MarketDefaults `yaml:"defaults" json:"defaults"`
}

func DefaultConfig() EngineConfig {
	return EngineConfig{
		ErrorPenalty:                15,
		WarningPenalty:              3,
		HighWeightWarningMultiplier: 2,
		PricePerAreaMin:             10,
		PricePerAreaMax:             1000,
		CapRateBandMin:              0.02,
		CapRateBandMax:              0.20,
		ExpenseRatioBandMin:         0.10,
		ExpenseRatioBandMax:         0.80,
		MaxConstructionAge:          100,

		SingleAdjustmentFlag: 0.30,
		TotalAdjustmentFlag:  0.50,
		NetAdjustmentCap:     0.50,

		MinComparables:      3,
		MaxSaleAgeMonths:    36,
		SizeRatioMin:        1.0 / 3.0,
		SizeRatioMax:        3.0,
		SelectMin:           3,
		SelectMax:           6,
		RankWeightSimilar:   0.4,
		RankWeightQuality:   0.3,
		RankWeightRisk:      0.2,
		RankWeightSupport:   0.1,
		RiskFactorsHigh:     4,
		RiskFactorsModerate: 2,

		CapRateFloor:      0.04,
		CapRateCeiling:    0.12,
		DCFYears:          10,
		TerminalCapSpread: 0.005,
		DiscountSpread:    0.02,

		ParkingCostPerSpace: 3500,
		SoftCostPct:         0.15,
		ProfitPct:           0.20,
		LandSizeBand:        2.0,

		BaseWeights: map[PropertyType]ApproachWeights{
			PropertyOffice:      {Sales: 0.5, Income: 0.4, Cost: 0.1},
			PropertyRetail:      {Sales: 0.5, Income: 0.4, Cost: 0.1},
			PropertyIndustrial:  {Sales: 0.45, Income: 0.35, Cost: 0.2},
			PropertyWarehouse:   {Sales: 0.45, Income: 0.35, Cost: 0.2},
			PropertyMultifamily: {Sales: 0.3, Income: 0.6, Cost: 0.1},
			PropertyMixedUse:    {Sales: 0.4, Income: 0.45, Cost: 0.15},
			PropertyLand:        {Sales: 0.8, Income: 0.0, Cost: 0.2},
		},
		FallbackWeights:        ApproachWeights{Sales: 0.5, Income: 0.4, Cost: 0.1},
		PreferredApproachBoost: 1.25,
		VarianceAcceptable:     0.25,
		RangeBasePct:           0.05,
		RangeStepPct:           0.05,
		RangeCapPct:            0.20,

		Defaults: DefaultMarketTables(),
	}
}

func (c EngineConfig) baseWeightsFor(pt PropertyType) ApproachWeights {
	if w, ok := c.BaseWeights[pt]; ok {
		return w
	}
	return c.FallbackWeights
}
