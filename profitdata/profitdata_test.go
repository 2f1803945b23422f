package profitdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleCSV = `year,noninvestor profit,total investor profit,mean profit diff
2000,10000,40000,30000
2002,30000,80000,50000
2001,20000,60000,40000
`

func TestLoadProfits(t *testing.T) {
	for _, test := range []struct {
		Name          string
		Input         string
		ExpectRecords []ProfitRecord
		ExpectErr     string
	}{
		{
			Name:  "sorts ascending by year, ignores extra columns",
			Input: sampleCSV,
			ExpectRecords: []ProfitRecord{
				{Year: 2000, InvestorProfit: 40000, NonInvestorProfit: 10000},
				{Year: 2001, InvestorProfit: 60000, NonInvestorProfit: 20000},
				{Year: 2002, InvestorProfit: 80000, NonInvestorProfit: 30000},
			},
		},
		{
			Name: "duplicate year keeps first occurrence",
			Input: `year,noninvestor profit,total investor profit
2000,1,2
2000,3,4
2001,5,6
`,
			ExpectRecords: []ProfitRecord{
				{Year: 2000, InvestorProfit: 2, NonInvestorProfit: 1},
				{Year: 2001, InvestorProfit: 6, NonInvestorProfit: 5},
			},
		},
		{
			Name: "pandas float years are accepted",
			Input: `year,noninvestor profit,total investor profit
2000.0,1,2
2001.0,3,4
`,
			ExpectRecords: []ProfitRecord{
				{Year: 2000, InvestorProfit: 2, NonInvestorProfit: 1},
				{Year: 2001, InvestorProfit: 4, NonInvestorProfit: 3},
			},
		},
		{
			Name: "non-numeric year fails fast",
			Input: `year,noninvestor profit,total investor profit
abc,1,2
2001,3,4
`,
			ExpectErr: `column "year" has non-numeric value "abc"`,
		},
		{
			Name: "non-numeric profit fails fast",
			Input: `year,noninvestor profit,total investor profit
2000,oops,2
2001,3,4
`,
			ExpectErr: `column "noninvestor profit" has non-numeric value "oops"`,
		},
		{
			Name:      "missing column",
			Input:     "year,something\n2000,1\n2001,2\n",
			ExpectErr: `missing column "total investor profit"`,
		},
		{
			Name: "fewer than 2 distinct years",
			Input: `year,noninvestor profit,total investor profit
2000,1,2
`,
			ExpectErr: "at least 2 distinct years",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			assert := assert.New(t)
			series, err := LoadProfits(strings.NewReader(test.Input))
			if test.ExpectErr != "" {
				assert.ErrorContains(err, test.ExpectErr)
				return
			}
			assert.NoError(err)
			assert.Equal(test.ExpectRecords, series.Records())
		})
	}
}

func TestLoadProfits_malformedRecordErrorType(t *testing.T) {
	_, err := LoadProfits(strings.NewReader("year,noninvestor profit,total investor profit\nxx,1,2\n"))
	var malformed *MalformedRecordError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Row)
	assert.Equal(t, "year", malformed.Column)
}

func TestSeries_yearBounds(t *testing.T) {
	series, err := LoadProfits(strings.NewReader(sampleCSV))
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(2000, series.MinYear())
	assert.Equal(2002, series.MaxYear())
}

func TestLoadHPI(t *testing.T) {
	series, err := LoadHPI(strings.NewReader("year,home price index\n2000,100\n2001,110.5\n"))
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]HPIRecord{{Year: 2000, Index: 100}, {Year: 2001, Index: 110.5}}, series.Records())
}

func TestLoadHPI_empty(t *testing.T) {
	_, err := LoadHPI(strings.NewReader("year,home price index\n"))
	assert.ErrorContains(t, err, "empty")
}
