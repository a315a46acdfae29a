package market

// ApplyFill returns the post-trade cash balance and holding for a validated
// fill. Cost sides debit cash, proceeds sides credit it; the holding moves
// by the side's signed share delta. The player's TotalShares moves by the
// same delta, applied by the caller under its serialization discipline.
func ApplyFill(side Side, shares int64, cash Cents, holding int64, total Cents) (Cents, int64) {
	if side.IsCost() {
		cash -= total
	} else {
		cash += total
	}
	return cash, holding + side.SharesDelta(shares)
}
