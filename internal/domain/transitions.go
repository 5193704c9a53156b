package domain

var conversionRank = map[string]int{
	ConversionPending:  0,
	ConversionApproved: 1,
	ConversionPaid:     2,
}

// CanTransition reports whether a conversion may move from one status to
// another. Statuses only advance along PENDING -> APPROVED -> PAID (steps may
// be skipped) or move sideways to REJECTED; PAID and REJECTED are final.
// Staying in the same status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if from == ConversionPaid || from == ConversionRejected {
		return false
	}
	if to == ConversionRejected {
		return true
	}
	fromRank, ok := conversionRank[from]
	if !ok {
		return false
	}
	toRank, ok := conversionRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
