package domain

// Quote holds the monetary breakdown of a reservation or order. All amounts
// are integer minor currency units; decimals exist only at the display layer.
type Quote struct {
	TotalCents      int64
	DepositCents    int64
	RemainingCents  int64
	RemainingStatus RemainingPaymentStatus
}

// Price computes total, deposit and remainder from a per-unit price, a
// quantity and a deposit percent. The deposit is rounded half-up so that
// DepositCents + RemainingCents == TotalCents holds exactly. A deposit
// percent of 100 (or more) means full prepayment: the remainder is zero and
// is marked not_required.
func Price(unitPriceCents int64, quantity int, depositPercent int) Quote {
	total := unitPriceCents * int64(quantity)

	if depositPercent >= 100 {
		return Quote{
			TotalCents:      total,
			DepositCents:    total,
			RemainingCents:  0,
			RemainingStatus: RemainingNotRequired,
		}
	}

	if depositPercent < 0 {
		depositPercent = 0
	}

	// round half-up on the cent
	deposit := (total*int64(depositPercent) + 50) / 100

	return Quote{
		TotalCents:      total,
		DepositCents:    deposit,
		RemainingCents:  total - deposit,
		RemainingStatus: RemainingPending,
	}
}
