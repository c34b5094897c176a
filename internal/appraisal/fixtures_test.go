package appraisal

import "time"

// asOf anchors all date math in tests so they do not drift as the clock moves.
var asOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func testSubject() SubjectProperty {
	return SubjectProperty{
		Name:         "Riverside Commons",
		Address:      "400 Commerce St",
		PropertyType: PropertyOffice,
		Physical: PhysicalAttributes{
			GrossBuildingArea: 50000,
			NetRentableArea:   45000,
			LandArea:          80000,
			YearBuilt:         2010,
			ConstructionType:  ConstructionSteel,
			FinishLevel:       "class_a",
			Condition:         ConditionGood,
			Stories:           4,
			CeilingHeightFeet: 10,
			ParkingSpaces:     150,
			HVACScore:         4,
		},
		Legal: LegalAttributes{
			Zoning:         "C-2",
			PropertyRights: RightsFeeSimple,
		},
		Location: LocationAttributes{
			City:                "Fort Worth",
			State:               "TX",
			NeighborhoodRating:  4,
			TransportationScore: 4,
			DistanceFromCBD:     2.5,
		},
		Income: &IncomeData{
			PotentialGrossIncome: 1_350_000,
			OtherIncome:          40_000,
			VacancyRate:          f64(0.06),
			Leases: []Lease{
				{Tenant: "Meridian Legal Group", SquareFeet: 20000, AnnualRent: 600000, LeaseLengthMonths: 84, CreditRating: "A"},
				{Tenant: "Trinity Analytics", SquareFeet: 15000, AnnualRent: 435000, LeaseLengthMonths: 60, CreditRating: "BBB"},
			},
		},
		Expenses: &ExpenseData{
			Taxes:     f64(180000),
			Insurance: f64(28000),
		},
	}
}

// testComparables are five near-twins of the subject: same type, sizes within
// 10%, recent arms-length sales. Individual tests perturb copies as needed.
func testComparables() []Comparable {
	base := Comparable{
		City:                "Fort Worth",
		State:               "TX",
		PropertyType:        PropertyOffice,
		YearBuilt:           2011,
		ConstructionType:    ConstructionSteel,
		FinishLevel:         "class_a",
		Condition:           ConditionGood,
		NeighborhoodRating:  4,
		TransportationScore: 4,
		DistanceFromCBD:     2.8,
		SaleCondition:       SaleArmsLength,
		FinancingType:       FinancingConventional,
		PropertyRights:      RightsFeeSimple,
		HVACScore:           4,
		ParkingSpaces:       140,
	}
	mk := func(name string, price, area float64, monthsAgo int) Comparable {
		c := base
		c.Name = name
		c.Address = name + " Blvd"
		c.SalePrice = price
		c.BuildingArea = area
		c.LandArea = 75000
		c.SaleDate = asOf.AddDate(0, -monthsAgo, 0)
		c.CapRate = f64(0.072)
		c.NOI = f64(price * 0.072)
		return c
	}
	return []Comparable{
		mk("Heritage Plaza", 13_500_000, 48000, 2),
		mk("Summit Tower", 14_200_000, 52000, 1),
		mk("Lancaster Center", 13_100_000, 47500, 3),
		mk("Magnolia Exchange", 14_000_000, 51000, 2),
		mk("Clearfork Offices", 13_800_000, 49500, 1),
	}
}

func testMarket() MarketData {
	return MarketData{
		CapRates: map[PropertyType]float64{
			PropertyOffice:      0.072,
			PropertyRetail:      0.070,
			PropertyMultifamily: 0.055,
		},
		ExpenseRatios: map[PropertyType]float64{
			PropertyOffice: 0.38,
		},
		ConstructionCosts: map[PropertyType]float64{
			PropertyOffice: 225,
		},
		LandSales: []LandSale{
			{Zoning: "C-2", SalePrice: 2_000_000, LandArea: 78000, SaleDate: asOf.AddDate(0, -4, 0), Neighborhood: "Near Southside"},
			{Zoning: "C-2", SalePrice: 2_150_000, LandArea: 85000, SaleDate: asOf.AddDate(0, -7, 0), Neighborhood: "Near Southside"},
		},
		AnnualAppreciationRate: f64(0.03),
		MarketRate:             f64(0.065),
		DiscountRate:           f64(0.09),
		Condition:              MarketStable,
	}
}
