package network

import (
	"math/big"
)

// Binomial returns C(n, k), or zero when k < 0, n < 0 or k > n.
func Binomial(n, k int) *big.Int {
	if n < 0 || k < 0 || k > n {
		return new(big.Int)
	}
	return new(big.Int).Binomial(int64(n), int64(k))
}

// BinomialFloat returns C(n, k) as a float64, +Inf when it does not fit.
func BinomialFloat(n, k int) float64 {
	f, _ := new(big.Float).SetInt(Binomial(n, k)).Float64()
	return f
}

// forEachCombination calls fn with every k-combination of [0, n) in
// lexicographic order; k == 0 yields one empty combination. The slice passed
// to fn is reused between calls. Iteration stops early when fn returns false.
func forEachCombination(n, k int, fn func([]int) bool) {
	if k < 0 || k > n {
		return
	}
	if k == 0 {
		fn(nil)
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		// Rightmost position that can still advance
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
