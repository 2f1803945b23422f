package profitdata

import "sort"

// ProfitAt returns the linearly interpolated (investor, nonInvestor)
// profit totals at the fractional year t. Values are clamped to the
// first/last record outside the series range, there is no
// extrapolation.
func (s *Series) ProfitAt(t float64) (investor, nonInvestor float64) {
	lo, hi, frac := bracket(len(s.records), t, func(i int) float64 { return float64(s.records[i].Year) })
	a, b := s.records[lo], s.records[hi]
	investor = lerp(a.InvestorProfit, b.InvestorProfit, frac)
	nonInvestor = lerp(a.NonInvestorProfit, b.NonInvestorProfit, frac)
	return investor, nonInvestor
}

// At returns the home price index at the fractional year t, clamped and
// interpolated the same way as ProfitAt.
func (s *HPISeries) At(t float64) float64 {
	lo, hi, frac := bracket(len(s.records), t, func(i int) float64 { return float64(s.records[i].Year) })
	return lerp(s.records[lo].Index, s.records[hi].Index, frac)
}

// bracket locates the interval [year(lo), year(hi)] containing t and
// the interpolation fraction within it. Outside the range it returns a
// degenerate interval (lo == hi) so callers clamp for free. A zero
// interval width also yields frac == 0, guarding the division.
func bracket(n int, t float64, year func(int) float64) (lo, hi int, frac float64) {
	if t <= year(0) {
		return 0, 0, 0
	}
	if t >= year(n-1) {
		return n - 1, n - 1, 0
	}
	hi = sort.Search(n, func(i int) bool { return year(i) > t })
	lo = hi - 1
	width := year(hi) - year(lo)
	if width <= 0 {
		return lo, lo, 0
	}
	return lo, hi, (t - year(lo)) / width
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}
