package appraisal

import "time"

const Disclaimer = "This is an automated valuation analysis prepared for internal review. " +
	"Value conclusions are based on the data supplied and documented market assumptions; " +
	"they are not a substitute for an inspection-based appraisal."

type PropertyType string

const (
	PropertyOffice      PropertyType = "office"
	PropertyRetail      PropertyType = "retail"
	PropertyIndustrial  PropertyType = "industrial"
	PropertyWarehouse   PropertyType = "warehouse"
	PropertyMultifamily PropertyType = "multifamily"
	PropertyMixedUse    PropertyType = "mixed_use"
	PropertyLand        PropertyType = "land"
)

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type AdjustmentType string

const (
	AdjustmentPercent AdjustmentType = "percent"
	AdjustmentDollar  AdjustmentType = "dollar"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

type SupportLevel string

const (
	SupportStrong   SupportLevel = "strong"
	SupportModerate SupportLevel = "moderate"
	SupportWeak     SupportLevel = "weak"
)

type SaleCondition string

const (
	SaleArmsLength   SaleCondition = "arms_length"
	SaleDistressed   SaleCondition = "distressed"
	SaleForeclosure  SaleCondition = "foreclosure"
	SaleRelatedParty SaleCondition = "related_party"
	SaleAuction      SaleCondition = "auction"
)

type FinancingType string

const (
	FinancingCash         FinancingType = "cash"
	FinancingConventional FinancingType = "conventional"
	FinancingSeller       FinancingType = "seller"
	FinancingAssumed      FinancingType = "assumed"
)

type PropertyRights string

const (
	RightsFeeSimple PropertyRights = "fee_simple"
	RightsLeasedFee PropertyRights = "leased_fee"
	RightsLeasehold PropertyRights = "leasehold"
)

type ConstructionType string

const (
	ConstructionSteel    ConstructionType = "steel"
	ConstructionConcrete ConstructionType = "concrete"
	ConstructionMasonry  ConstructionType = "masonry"
	ConstructionWood     ConstructionType = "wood"
)

type ConditionRating string

const (
	ConditionExcellent ConditionRating = "excellent"
	ConditionGood      ConditionRating = "good"
	ConditionAverage   ConditionRating = "average"
	ConditionFair      ConditionRating = "fair"
	ConditionPoor      ConditionRating = "poor"
)

// Applicability buckets for the cost approach, keyed off building age.
type Applicability string

const (
	ApplicabilityHigh    Applicability = "high"
	ApplicabilityMedium  Applicability = "medium"
	ApplicabilityLow     Applicability = "low"
	ApplicabilityVeryLow Applicability = "very_low"
)

type Lease struct {
	Tenant            string  `json:"tenant,omitempty"`
	SquareFeet        float64 `json:"square_feet"`
	AnnualRent        float64 `json:"annual_rent"`
	LeaseLengthMonths int     `json:"lease_length_months"`
	CreditRating      string  `json:"credit_rating,omitempty"`
}

type IncomeData struct {
	PotentialGrossIncome float64  `json:"potential_gross_income"`
	OtherIncome          float64  `json:"other_income,omitempty"`
	VacancyRate          *float64 `json:"vacancy_rate,omitempty"`
	Leases               []Lease  `json:"leases,omitempty"`
}

type ExpenseData struct {
	Taxes       *float64 `json:"taxes,omitempty"`
	Insurance   *float64 `json:"insurance,omitempty"`
	Utilities   *float64 `json:"utilities,omitempty"`
	Maintenance *float64 `json:"maintenance,omitempty"`
	Management  *float64 `json:"management,omitempty"`
	Reserves    *float64 `json:"reserves,omitempty"`
}

type PhysicalAttributes struct {
	GrossBuildingArea float64          `json:"gross_building_area"`
	NetRentableArea   float64          `json:"net_rentable_area"`
	LandArea          float64          `json:"land_area"`
	YearBuilt         int              `json:"year_built"`
	ConstructionType  ConstructionType `json:"construction_type,omitempty"`
	FinishLevel       string           `json:"finish_level,omitempty"`
	Condition         ConditionRating  `json:"condition,omitempty"`
	Stories           int              `json:"stories,omitempty"`
	CeilingHeightFeet float64          `json:"ceiling_height_feet,omitempty"`
	ParkingSpaces     int              `json:"parking_spaces,omitempty"`
	HVACScore         int              `json:"hvac_score,omitempty"`
	LoadingDocks      int              `json:"loading_docks,omitempty"`
}

type LegalAttributes struct {
	Zoning         string         `json:"zoning,omitempty"`
	PropertyRights PropertyRights `json:"property_rights,omitempty"`
	Easements      []string       `json:"easements,omitempty"`
}

type LocationAttributes struct {
	City                string  `json:"city"`
	State               string  `json:"state"`
	NeighborhoodRating  int     `json:"neighborhood_rating,omitempty"`
	TransportationScore int     `json:"transportation_score,omitempty"`
	DistanceFromCBD     float64 `json:"distance_from_cbd_miles,omitempty"`
}

type EnvironmentalFlags struct {
	Issues          []string `json:"issues,omitempty"`
	DecliningMarket bool     `json:"declining_market,omitempty"`
	DecliningArea   bool     `json:"declining_area,omitempty"`
}

// SubjectProperty is the immutable input to a single appraisal run.
type SubjectProperty struct {
	Name          string              `json:"name,omitempty"`
	Address       string              `json:"address,omitempty"`
	PropertyType  PropertyType        `json:"property_type"`
	Physical      PhysicalAttributes  `json:"physical"`
	Legal         LegalAttributes     `json:"legal"`
	Location      LocationAttributes  `json:"location"`
	Income        *IncomeData         `json:"income,omitempty"`
	Expenses      *ExpenseData        `json:"expenses,omitempty"`
	Environmental *EnvironmentalFlags `json:"environmental,omitempty"`
}

// Comparable is one past transaction. Read-only within a run.
type Comparable struct {
	Name                string           `json:"name,omitempty"`
	Address             string           `json:"address,omitempty"`
	City                string           `json:"city,omitempty"`
	State               string           `json:"state,omitempty"`
	PropertyType        PropertyType     `json:"property_type"`
	SalePrice           float64          `json:"sale_price"`
	SaleDate            time.Time        `json:"sale_date"`
	BuildingArea        float64          `json:"building_area"`
	LandArea            float64          `json:"land_area,omitempty"`
	YearBuilt           int              `json:"year_built,omitempty"`
	ConstructionType    ConstructionType `json:"construction_type,omitempty"`
	FinishLevel         string           `json:"finish_level,omitempty"`
	Condition           ConditionRating  `json:"condition,omitempty"`
	NeighborhoodRating  int              `json:"neighborhood_rating,omitempty"`
	TransportationScore int              `json:"transportation_score,omitempty"`
	DistanceFromCBD     float64          `json:"distance_from_cbd_miles,omitempty"`
	CapRate             *float64         `json:"cap_rate,omitempty"`
	NOI                 *float64         `json:"noi,omitempty"`
	SaleCondition       SaleCondition    `json:"sale_condition,omitempty"`
	FinancingType       FinancingType    `json:"financing_type,omitempty"`
	InterestRate        *float64         `json:"interest_rate,omitempty"`
	PropertyRights      PropertyRights   `json:"property_rights,omitempty"`
	HVACScore           int              `json:"hvac_score,omitempty"`
	ParkingSpaces       int              `json:"parking_spaces,omitempty"`
	LoadingDocks        int              `json:"loading_docks,omitempty"`
	Leases              []Lease          `json:"leases,omitempty"`
}

type LandSale struct {
	Zoning       string    `json:"zoning,omitempty"`
	SalePrice    float64   `json:"sale_price"`
	LandArea     float64   `json:"land_area"`
	SaleDate     time.Time `json:"sale_date,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
}

type MarketCondition string

const (
	MarketDeclining MarketCondition = "declining"
	MarketStable    MarketCondition = "stable"
	MarketGrowing   MarketCondition = "growing"
)

// MarketData supplies defaults when subject/comparable fields are absent.
// It may be entirely empty; the engine falls back to the MarketDefaults tables.
type MarketData struct {
	CapRates               map[PropertyType]float64 `json:"cap_rates,omitempty"`
	ExpenseRatios          map[PropertyType]float64 `json:"expense_ratios,omitempty"`
	ConstructionCosts      map[PropertyType]float64 `json:"construction_costs,omitempty"`
	LandSales              []LandSale               `json:"land_sales,omitempty"`
	AnnualAppreciationRate *float64                 `json:"annual_appreciation_rate,omitempty"`
	MarketRate             *float64                 `json:"market_interest_rate,omitempty"`
	Condition              MarketCondition          `json:"market_condition,omitempty"`
	RegionalCostMultiplier *float64                 `json:"regional_cost_multiplier,omitempty"`
	DiscountRate           *float64                 `json:"discount_rate,omitempty"`
	IncomeGrowthRate       *float64                 `json:"income_growth_rate,omitempty"`
	ExpenseGrowthRate      *float64                 `json:"expense_growth_rate,omitempty"`
	VacancyRate            *float64                 `json:"vacancy_rate,omitempty"`
}

// Adjustment is a pure computed delta; it exists only within an AdjustedComparable.
type Adjustment struct {
	Type        AdjustmentType  `json:"type"`
	Amount      float64         `json:"amount"`
	Explanation string          `json:"explanation"`
	Confidence  ConfidenceLevel `json:"confidence"`
}

type AdjustedComparable struct {
	Comparable           `json:"comparable"`
	Adjustments          map[string]Adjustment `json:"adjustments"`
	DollarTotal          float64               `json:"dollar_total"`
	PercentFactor        float64               `json:"percent_factor"`
	AdjustedPrice        float64               `json:"adjusted_price"`
	AdjustedPricePerArea float64               `json:"adjusted_price_per_area"`
	NetAdjustment        float64               `json:"net_adjustment"`
	Valid                bool                  `json:"valid"`
	Weight               float64               `json:"weight"`
	Notes                []string              `json:"notes,omitempty"`
}

type RankedComparable struct {
	Comparable      `json:"comparable"`
	SimilarityScore float64      `json:"similarity_score"`
	AdjustmentRisk  RiskLevel    `json:"adjustment_risk"`
	DataQuality     float64      `json:"data_quality"`
	MarketSupport   SupportLevel `json:"market_support"`
	RankingScore    float64      `json:"ranking_score"`
}

type ValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type DispersionStats struct {
	Mean                   float64 `json:"mean"`
	Median                 float64 `json:"median"`
	StdDev                 float64 `json:"std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

type SalesComparisonResult struct {
	ValueIndication float64              `json:"value_indication"`
	ValueRange      ValueRange           `json:"value_range"`
	Comparables     []AdjustedComparable `json:"comparables"`
	Stats           DispersionStats      `json:"stats"`
	ValidCount      int                  `json:"valid_count"`
	AvgNetAdj       float64              `json:"avg_net_adjustment"`
	AvgSaleAgeMo    float64              `json:"avg_sale_age_months"`
	Confidence      float64              `json:"confidence"`
	Quality         ConfidenceLevel      `json:"quality"`
	Narrative       string               `json:"narrative"`
}

type IncomeStatement struct {
	PotentialGrossIncome float64            `json:"potential_gross_income"`
	VacancyLoss          float64            `json:"vacancy_loss"`
	OtherIncome          float64            `json:"other_income"`
	EffectiveGrossIncome float64            `json:"effective_gross_income"`
	Expenses             map[string]float64 `json:"expenses"`
	TotalExpenses        float64            `json:"total_expenses"`
	NetOperatingIncome   float64            `json:"net_operating_income"`
}

type CashFlowYear struct {
	Year      int     `json:"year"`
	NOI       float64 `json:"noi"`
	Present   float64 `json:"present_value"`
}

type DCFProjection struct {
	Years         []CashFlowYear `json:"years"`
	TerminalValue float64        `json:"terminal_value"`
	TerminalPV    float64        `json:"terminal_pv"`
	DiscountRate  float64        `json:"discount_rate"`
	TerminalCap   float64        `json:"terminal_cap_rate"`
	Value         float64        `json:"value"`
}

type IncomeResult struct {
	ValueIndication float64         `json:"value_indication"`
	DirectCapValue  float64         `json:"direct_cap_value"`
	CapRate         float64         `json:"cap_rate"`
	Statement       IncomeStatement `json:"statement"`
	DCF             *DCFProjection  `json:"dcf,omitempty"`
	Confidence      float64         `json:"confidence"`
	Quality         ConfidenceLevel `json:"quality"`
	Narrative       string          `json:"narrative"`
}

type DepreciationBreakdown struct {
	PhysicalCurable    float64 `json:"physical_curable"`
	PhysicalShortLived float64 `json:"physical_short_lived"`
	PhysicalLongLived  float64 `json:"physical_long_lived"`
	Functional         float64 `json:"functional"`
	External           float64 `json:"external"`
	Total              float64 `json:"total"`
	EffectiveAge       float64 `json:"effective_age_years"`
	EconomicLife       float64 `json:"economic_life_years"`
}

type CostBreakdown struct {
	LandValue        float64 `json:"land_value"`
	LandValueSource  string  `json:"land_value_source"`
	BaseCost         float64 `json:"base_cost"`
	SiteImprovements float64 `json:"site_improvements"`
	SoftCosts        float64 `json:"soft_costs"`
	Profit           float64 `json:"developer_profit"`
	ReplacementCost  float64 `json:"replacement_cost"`
}

type CostResult struct {
	ValueIndication float64               `json:"value_indication"`
	Breakdown       CostBreakdown         `json:"breakdown"`
	Depreciation    DepreciationBreakdown `json:"depreciation"`
	Applicability   Applicability         `json:"applicability"`
	Confidence      float64               `json:"confidence"`
	Quality         ConfidenceLevel       `json:"quality"`
	Narrative       string                `json:"narrative"`
}

type UseCandidate struct {
	Use                 PropertyType `json:"use"`
	LegallyPermissible  bool         `json:"legally_permissible"`
	PhysicallyPossible  bool         `json:"physically_possible"`
	FinanciallyFeasible bool         `json:"financially_feasible"`
	ROIScore            float64      `json:"roi_score"`
	StabilityScore      float64      `json:"stability_score"`
	ProductivityScore   float64      `json:"productivity_score"`
	EstimatedValue      float64      `json:"estimated_value"`
}

type HBUConclusion struct {
	RecommendedUse PropertyType   `json:"recommended_use"`
	Candidates     []UseCandidate `json:"candidates"`
	Narrative      string         `json:"narrative"`
}

type HBUResult struct {
	AsVacant   HBUConclusion `json:"as_vacant"`
	AsImproved HBUConclusion `json:"as_improved"`
	// ApplicableUse feeds property-type assumptions into the approaches.
	ApplicableUse PropertyType `json:"applicable_use"`
}

type ApproachWeights struct {
	Sales  float64 `json:"sales"`
	Income float64 `json:"income"`
	Cost   float64 `json:"cost"`
}

type ReliabilityAssessment struct {
	Score   float64         `json:"score"`
	Label   ConfidenceLevel `json:"label"`
	Factors []string        `json:"factors,omitempty"`
}

type VarianceDiagnostic struct {
	Mean                   float64 `json:"mean"`
	Variance               float64 `json:"variance"`
	StdDev                 float64 `json:"std_dev"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	Range                  float64 `json:"range"`
	Acceptable             bool    `json:"acceptable"`
	Label                  string  `json:"label"`
}

type ReconciliationResult struct {
	Reliability  map[string]ReliabilityAssessment `json:"reliability"`
	Weights      ApproachWeights                  `json:"weights"`
	UsedFallback bool                             `json:"used_fallback_weights"`
	FinalValue   float64                          `json:"final_value"`
	ValueRange   ValueRange                       `json:"value_range"`
	Variance     VarianceDiagnostic               `json:"variance"`
	Confidence   float64                          `json:"overall_confidence"`
	Narrative    string                           `json:"narrative"`
}

type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

type ValidationIssue struct {
	Field    string        `json:"field"`
	Message  string        `json:"message"`
	Severity IssueSeverity `json:"severity"`
}

// AssumedDefault records a value the engine supplied because the caller did not.
type AssumedDefault struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type DataCompleteness struct {
	SubjectPct      float64          `json:"subject_pct"`
	ComparablePct   float64          `json:"comparable_pct"`
	MarketPct       float64          `json:"market_pct"`
	AssumedDefaults []AssumedDefault `json:"assumed_defaults,omitempty"`
}

type ValidationResult struct {
	IsValid      bool              `json:"is_valid"`
	Errors       []ValidationIssue `json:"errors"`
	Warnings     []ValidationIssue `json:"warnings"`
	QualityScore int               `json:"quality_score"`
	Completeness DataCompleteness  `json:"completeness"`
}

// UserAdjustment is a caller-supplied override merged during sales comparison.
type UserAdjustment struct {
	ComparableName string         `json:"comparable_name"`
	Name           string         `json:"name"`
	Type           AdjustmentType `json:"type"`
	Amount         float64        `json:"amount"`
	Explanation    string         `json:"explanation,omitempty"`
}

type Options struct {
	IncludeAllApproaches bool             `json:"include_all_approaches,omitempty"`
	PreferredApproach    string           `json:"preferred_approach,omitempty"`
	USPAPCompliance      bool             `json:"uspap_compliance,omitempty"`
	UserAdjustments      []UserAdjustment `json:"user_adjustments,omitempty"`
	// EffectiveDate anchors sale-age and building-age arithmetic. Zero means
	// "now", which the pipeline resolves once so a run stays self-consistent.
	EffectiveDate time.Time `json:"effective_date,omitempty"`
}

type RunMetadata struct {
	StagesExecuted  []string          `json:"stages_executed"`
	StagesSkipped   []string          `json:"stages_skipped,omitempty"`
	ApproachErrors  map[string]string `json:"approach_errors,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     time.Time         `json:"completed_at"`
	EffectiveDate   time.Time         `json:"effective_date"`
	EarlyExitReason string            `json:"early_exit_reason,omitempty"`
}

// AppraisalResult is the terminal artifact handed to the report formatter and
// persistence layer. The ID and timestamps are cosmetic; value computation
// never reads them.
type AppraisalResult struct {
	ID             string                 `json:"id"`
	CreatedAt      time.Time              `json:"created_at"`
	Subject        SubjectProperty        `json:"subject"`
	Options        Options                `json:"options"`
	Validation     ValidationResult       `json:"validation"`
	Ranked         []RankedComparable     `json:"ranked_comparables,omitempty"`
	HBU            *HBUResult             `json:"highest_best_use,omitempty"`
	Sales          *SalesComparisonResult `json:"sales_comparison,omitempty"`
	Income         *IncomeResult          `json:"income_capitalization,omitempty"`
	Cost           *CostResult            `json:"cost_approach,omitempty"`
	Reconciliation *ReconciliationResult  `json:"reconciliation,omitempty"`
	FinalValue     float64                `json:"final_value"`
	ValueRange     ValueRange             `json:"value_range"`
	Confidence     float64                `json:"overall_confidence"`
	Metadata       RunMetadata            `json:"metadata"`
	Disclaimer     string                 `json:"disclaimer"`
}
