package appraisal

// ExpenseRatioTable holds per-line expense ratios applied against effective
// gross income when the caller supplies no explicit figure.
type ExpenseRatioTable struct {
	Taxes       float64 `yaml:"taxes" json:"taxes"`
	Insurance   float64 `yaml:"insurance" json:"insurance"`
	Utilities   float64 `yaml:"utilities" json:"utilities"`
	Maintenance float64 `yaml:"maintenance" json:"maintenance"`
	Management  float64 `yaml:"management" json:"management"`
	Reserves    float64 `yaml:"reserves" json:"reserves"`
}

func (t ExpenseRatioTable) Total() float64 {
	return t.Taxes + t.Insurance + t.Utilities + t.Maintenance + t.Management + t.Reserves
}

// ShortLivedComponent is a building component depreciated against its own
// life span, weighted by its share of replacement cost.
type ShortLivedComponent struct {
	Name      string  `yaml:"name" json:"name"`
	LifeYears float64 `yaml:"life_years" json:"life_years"`
	CostShare float64 `yaml:"cost_share" json:"cost_share"`
}

// MarketDefaults supplies every table the engine falls back to when MarketData
// is silent. Carried on EngineConfig so tests can override any figure.
type MarketDefaults struct {
	CapRates            map[PropertyType]float64           `yaml:"cap_rates" json:"cap_rates"`
	ExpenseRatios       map[PropertyType]ExpenseRatioTable `yaml:"expense_ratios" json:"expense_ratios"`
	ConstructionCosts   map[PropertyType]float64           `yaml:"construction_costs" json:"construction_costs"`
	EconomicLife        map[ConstructionType]float64       `yaml:"economic_life" json:"economic_life"`
	EconomicLifeAdjust  map[PropertyType]float64           `yaml:"economic_life_adjust" json:"economic_life_adjust"`
	LandValuePerArea    map[string]float64                 `yaml:"land_value_per_area" json:"land_value_per_area"`
	AppreciationRate    float64                            `yaml:"appreciation_rate" json:"appreciation_rate"`
	MarketInterestRate  float64                            `yaml:"market_interest_rate" json:"market_interest_rate"`
	VacancyRate         float64                            `yaml:"vacancy_rate" json:"vacancy_rate"`
	IncomeGrowthRate    float64                            `yaml:"income_growth_rate" json:"income_growth_rate"`
	ExpenseGrowthRate   float64                            `yaml:"expense_growth_rate" json:"expense_growth_rate"`
	RegionalMultiplier  float64                            `yaml:"regional_multiplier" json:"regional_multiplier"`
	ShortLivedSchedule  []ShortLivedComponent              `yaml:"short_lived_schedule" json:"short_lived_schedule"`
	SitePrepPerLandArea float64                            `yaml:"site_prep_per_land_area" json:"site_prep_per_land_area"`
}

func DefaultMarketTables() MarketDefaults {
	return MarketDefaults{
		CapRates: map[PropertyType]float64{
			PropertyOffice:      0.075,
			PropertyRetail:      0.070,
			PropertyIndustrial:  0.065,
			PropertyWarehouse:   0.065,
			PropertyMultifamily: 0.055,
			PropertyMixedUse:    0.070,
			PropertyLand:        0.080,
		},
		ExpenseRatios: map[PropertyType]ExpenseRatioTable{
			PropertyOffice:      {Taxes: 0.025, Insurance: 0.005, Utilities: 0.03, Maintenance: 0.02, Management: 0.05, Reserves: 0.02},
			PropertyRetail:      {Taxes: 0.025, Insurance: 0.006, Utilities: 0.02, Maintenance: 0.02, Management: 0.04, Reserves: 0.02},
			PropertyIndustrial:  {Taxes: 0.02, Insurance: 0.005, Utilities: 0.015, Maintenance: 0.025, Management: 0.03, Reserves: 0.02},
			PropertyWarehouse:   {Taxes: 0.02, Insurance: 0.005, Utilities: 0.01, Maintenance: 0.02, Management: 0.03, Reserves: 0.015},
			PropertyMultifamily: {Taxes: 0.03, Insurance: 0.008, Utilities: 0.04, Maintenance: 0.035, Management: 0.06, Reserves: 0.025},
			PropertyMixedUse:    {Taxes: 0.027, Insurance: 0.006, Utilities: 0.03, Maintenance: 0.025, Management: 0.05, Reserves: 0.02},
		},
		ConstructionCosts: map[PropertyType]float64{
			PropertyOffice:      220,
			PropertyRetail:      180,
			PropertyIndustrial:  120,
			PropertyWarehouse:   95,
			PropertyMultifamily: 190,
			PropertyMixedUse:    200,
		},
		EconomicLife: map[ConstructionType]float64{
			ConstructionSteel:    60,
			ConstructionConcrete: 55,
			ConstructionMasonry:  50,
			ConstructionWood:     40,
		},
		EconomicLifeAdjust: map[PropertyType]float64{
			PropertyOffice:      1.0,
			PropertyRetail:      0.95,
			PropertyIndustrial:  1.1,
			PropertyWarehouse:   1.15,
			PropertyMultifamily: 0.95,
			PropertyMixedUse:    1.0,
		},
		LandValuePerArea: map[string]float64{
			"commercial":  25,
			"industrial":  12,
			"mixed":       20,
			"residential": 15,
			"default":     18,
		},
		AppreciationRate:    0.03,
		MarketInterestRate:  0.065,
		VacancyRate:         0.07,
		IncomeGrowthRate:    0.025,
		ExpenseGrowthRate:   0.025,
		RegionalMultiplier:  1.0,
		ShortLivedSchedule: []ShortLivedComponent{
			{Name: "roof", LifeYears: 20, CostShare: 0.06},
			{Name: "hvac", LifeYears: 18, CostShare: 0.09},
			{Name: "electrical", LifeYears: 30, CostShare: 0.07},
			{Name: "plumbing", LifeYears: 35, CostShare: 0.05},
			{Name: "finishes", LifeYears: 12, CostShare: 0.10},
			{Name: "parking_surface", LifeYears: 15, CostShare: 0.03},
		},
		SitePrepPerLandArea: 1.5,
	}
}

func (d MarketDefaults) capRateFor(pt PropertyType) float64 {
	if r, ok := d.CapRates[pt]; ok {
		return r
	}
	return d.CapRates[PropertyOffice]
}

func (d MarketDefaults) expenseRatiosFor(pt PropertyType) ExpenseRatioTable {
	if t, ok := d.ExpenseRatios[pt]; ok {
		return t
	}
	return d.ExpenseRatios[PropertyOffice]
}

func (d MarketDefaults) constructionCostFor(pt PropertyType) float64 {
	if c, ok := d.ConstructionCosts[pt]; ok {
		return c
	}
	return d.ConstructionCosts[PropertyOffice]
}

func (d MarketDefaults) economicLifeFor(ct ConstructionType, pt PropertyType) float64 {
	life, ok := d.EconomicLife[ct]
	if !ok {
		life = d.EconomicLife[ConstructionMasonry]
	}
	if adj, ok := d.EconomicLifeAdjust[pt]; ok {
		life *= adj
	}
	return life
}

func (d MarketDefaults) landValueFor(zoning string) float64 {
	if v, ok := d.LandValuePerArea[zoningClass(zoning)]; ok {
		return v
	}
	return d.LandValuePerArea["default"]
}

// zoningClass reduces a raw zoning code to one of the land-value table keys.
func zoningClass(zoning string) string {
	switch {
	case zoning == "":
		return "default"
	case zoning[0] == 'C' || zoning[0] == 'c', zoning[0] == 'O' || zoning[0] == 'o':
		return "commercial"
	case zoning[0] == 'I' || zoning[0] == 'i', zoning[0] == 'M' && len(zoning) > 1 && zoning[1] >= '0' && zoning[1] <= '9':
		return "industrial"
	case zoning[0] == 'R' || zoning[0] == 'r':
		return "residential"
	case zoning[0] == 'M' || zoning[0] == 'm':
		return "mixed"
	default:
		return "default"
	}
}

// conditionScore maps condition ratings onto the 1-5 scale used by the
// condition and effective-age calculations. Unknown ratings read as average.
func conditionScore(c ConditionRating) float64 {
	switch c {
	case ConditionExcellent:
		return 5
	case ConditionGood:
		return 4
	case ConditionAverage:
		return 3
	case ConditionFair:
		return 2
	case ConditionPoor:
		return 1
	default:
		return 3
	}
}

// effectiveAgeMultiplier scales actual age into effective age: well-kept
// buildings age slower, poorly kept ones faster.
func effectiveAgeMultiplier(c ConditionRating) float64 {
	switch c {
	case ConditionExcellent:
		return 0.6
	case ConditionGood:
		return 0.8
	case ConditionAverage:
		return 1.0
	case ConditionFair:
		return 1.3
	case ConditionPoor:
		return 1.6
	default:
		return 1.0
	}
}

// constructionQualityScore combines the structural system with finish level.
func constructionQualityScore(ct ConstructionType, finish string) float64 {
	var base float64
	switch ct {
	case ConstructionSteel:
		base = 5
	case ConstructionConcrete:
		base = 4
	case ConstructionMasonry:
		base = 3
	case ConstructionWood:
		base = 2
	default:
		base = 3
	}
	switch finish {
	case "class_a", "premium":
		base += 0.5
	case "class_c", "basic":
		base -= 0.5
	}
	return base
}

// qualityCostMultiplier converts a construction quality score into a
// replacement-cost multiplier centered on a score of 3.
func qualityCostMultiplier(score float64) float64 {
	return 1.0 + (score-3.0)*0.08
}

// sizeCostMultiplier applies economies of scale to base construction cost.
func sizeCostMultiplier(area float64) float64 {
	switch {
	case area <= 0:
		return 1.0
	case area < 10000:
		return 1.10
	case area < 25000:
		return 1.05
	case area < 100000:
		return 1.0
	case area < 250000:
		return 0.95
	default:
		return 0.92
	}
}

// creditRatingScore maps a tenant credit rating to the 1-5 scale used by
// tenant-quality adjustments.
func creditRatingScore(rating string) float64 {
	switch rating {
	case "AAA", "AA":
		return 5
	case "A":
		return 4.5
	case "BBB":
		return 4
	case "BB":
		return 3
	case "B":
		return 2.5
	case "CCC", "CC", "C":
		return 1.5
	case "D":
		return 1
	default:
		return 3
	}
}
