package worker

import "math/big"

// IsReady reports whether a worker balance can afford a submission at the
// required gas price and externally estimated gas usage, on top of any fixed
// reserve the deployment keeps untouched. Pure: the balance fetch is the
// caller's job, which keeps I/O and readiness policy independently testable.
func IsReady(balance, requiredGasPrice, estimatedGasUsage, reserve *big.Int) bool {
	if balance == nil || requiredGasPrice == nil || estimatedGasUsage == nil {
		return false
	}

	required := new(big.Int).Mul(requiredGasPrice, estimatedGasUsage)
	if reserve != nil {
		required.Add(required, reserve)
	}

	return balance.Cmp(required) >= 0
}
