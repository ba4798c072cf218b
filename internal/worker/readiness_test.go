package worker

import (
	"math/big"
	"testing"
)

func TestIsReady(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		gasPrice int64
		gasUsage int64
		reserve  int64
		want     bool
	}{
		{name: "covered", balance: 100, gasPrice: 2, gasUsage: 40, want: true},
		{name: "exactly-covered", balance: 80, gasPrice: 2, gasUsage: 40, want: true},
		{name: "one-short", balance: 79, gasPrice: 2, gasUsage: 40, want: false},
		{name: "reserve-pushes-over", balance: 100, gasPrice: 2, gasUsage: 40, reserve: 21, want: false},
		{name: "reserve-still-covered", balance: 100, gasPrice: 2, gasUsage: 40, reserve: 20, want: true},
		{name: "zero-balance", balance: 0, gasPrice: 1, gasUsage: 1, want: false},
		{name: "free-gas", balance: 0, gasPrice: 0, gasUsage: 500_000, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reserve *big.Int
			if tt.reserve != 0 {
				reserve = big.NewInt(tt.reserve)
			}

			got := IsReady(big.NewInt(tt.balance), big.NewInt(tt.gasPrice), big.NewInt(tt.gasUsage), reserve)
			if got != tt.want {
				t.Errorf("IsReady(%d, %d, %d, %d) = %v, want %v",
					tt.balance, tt.gasPrice, tt.gasUsage, tt.reserve, got, tt.want)
			}
		})
	}
}

func TestIsReadyNilInputs(t *testing.T) {
	if IsReady(nil, big.NewInt(1), big.NewInt(1), nil) {
		t.Error("IsReady() with nil balance = true, want false")
	}
	if IsReady(big.NewInt(1), nil, big.NewInt(1), nil) {
		t.Error("IsReady() with nil gas price = true, want false")
	}
	if IsReady(big.NewInt(1), big.NewInt(1), nil, nil) {
		t.Error("IsReady() with nil gas usage = true, want false")
	}
}
