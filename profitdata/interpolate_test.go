package profitdata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSeries(t *testing.T) *Series {
	t.Helper()
	series, err := NewSeries([]ProfitRecord{
		{Year: 2000, InvestorProfit: 0, NonInvestorProfit: 0},
		{Year: 2001, InvestorProfit: 20000, NonInvestorProfit: 10000},
		{Year: 2004, InvestorProfit: 80000, NonInvestorProfit: 40000},
	})
	assert.NoError(t, err)
	return series
}

func TestSeries_ProfitAt(t *testing.T) {
	series := testSeries(t)
	for _, test := range []struct {
		Name                              string
		T                                 float64
		ExpectInvestor, ExpectNonInvestor float64
	}{
		{Name: "clamped below range", T: 1990, ExpectInvestor: 0, ExpectNonInvestor: 0},
		{Name: "clamped at first year", T: 2000, ExpectInvestor: 0, ExpectNonInvestor: 0},
		{Name: "midpoint linearity", T: 2000.5, ExpectInvestor: 10000, ExpectNonInvestor: 5000},
		{Name: "exact record year", T: 2001, ExpectInvestor: 20000, ExpectNonInvestor: 10000},
		{Name: "uneven interval", T: 2002.5, ExpectInvestor: 50000, ExpectNonInvestor: 25000},
		{Name: "clamped at last year", T: 2004, ExpectInvestor: 80000, ExpectNonInvestor: 40000},
		{Name: "clamped above range", T: 2050, ExpectInvestor: 80000, ExpectNonInvestor: 40000},
	} {
		t.Run(test.Name, func(t *testing.T) {
			investor, nonInvestor := series.ProfitAt(test.T)
			assert := assert.New(t)
			assert.InDelta(test.ExpectInvestor, investor, 1e-9)
			assert.InDelta(test.ExpectNonInvestor, nonInvestor, 1e-9)
		})
	}
}

func TestSeries_ProfitAt_midpointOfAllAdjacentPairs(t *testing.T) {
	series := testSeries(t)
	records := series.Records()
	assert := assert.New(t)
	for i := 0; i+1 < len(records); i++ {
		a, b := records[i], records[i+1]
		mid := (float64(a.Year) + float64(b.Year)) / 2
		investor, nonInvestor := series.ProfitAt(mid)
		assert.InDelta((a.InvestorProfit+b.InvestorProfit)/2, investor, 1e-9)
		assert.InDelta((a.NonInvestorProfit+b.NonInvestorProfit)/2, nonInvestor, 1e-9)
	}
}

func TestBracket_duplicateYears(t *testing.T) {
	// duplicate years are filtered by the loader, but the interpolation
	// must not divide by zero if they ever slip through
	years := []float64{2000, 2001, 2001, 2002}
	lo, hi, frac := bracket(len(years), 2001, func(i int) float64 { return years[i] })
	assert := assert.New(t)
	assert.GreaterOrEqual(hi, lo)
	assert.Zero(frac, "record value must be returned as-is at a duplicated year")
	assert.False(math.IsNaN(frac))
}

func TestHPISeries_At(t *testing.T) {
	series, err := NewHPISeries([]HPIRecord{{Year: 2000, Index: 100}, {Year: 2002, Index: 120}})
	assert := assert.New(t)
	assert.NoError(err)
	assert.InDelta(100.0, series.At(1999), 1e-9)
	assert.InDelta(110.0, series.At(2001), 1e-9)
	assert.InDelta(120.0, series.At(2003), 1e-9)
}

func TestHPISeries_At_singleRecord(t *testing.T) {
	series, err := NewHPISeries([]HPIRecord{{Year: 2000, Index: 100}})
	assert := assert.New(t)
	assert.NoError(err)
	assert.InDelta(100.0, series.At(1999), 1e-9)
	assert.InDelta(100.0, series.At(2005), 1e-9)
}
