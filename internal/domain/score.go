package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Score left-joins VP rows with the tide index and computes the risk value
// and band for every row. Row count and order are preserved.
//
// Rounding policy: VP and tide height are each rounded to two decimals, then
// multiplied, and the product is rounded to two decimals. A missing operand
// (no tide for the hour) counts as 0 in the product; the record is still
// emitted with AM left missing.
func Score(rows []HourlyIndicator, tide TideIndex, s Settings) []RiskRecord {
	out := make([]RiskRecord, 0, len(rows))
	for _, row := range rows {
		rec := RiskRecord{
			Date:      row.Key.Date,
			Hour:      row.Key.Hour,
			StationID: row.StationID,
		}

		vp, hasVP := roundedOperand(row.VP, true)
		if hasVP {
			rec.VP = Float(vp)
		}
		h, found := tide.Height(row.Key)
		am, hasAM := roundedOperand(h, found)
		if hasAM {
			rec.AM = Float(am)
		}

		rec.RiskValue = Round2(vp * am)
		rec.Band = s.Classify(rec.RiskValue)
		out = append(out, rec)
	}
	return out
}

// roundedOperand returns v rounded to two decimals, or 0 and false when the
// value is absent or NaN.
func roundedOperand(v float64, present bool) (float64, bool) {
	if !present || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return Round2(v), true
}

// Round2 rounds v to two decimal places, half to even. Ties are decided on the
// binary value of v*100, so 2.675 (stored just below) rounds to 2.67. NaN and
// infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v * 100).RoundBank(0).Shift(-2).InexactFloat64()
}
