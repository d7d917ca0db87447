// Package sieve implements the sieve of Eratosthenes.
package sieve

import "fmt"

// MaxLimit bounds the sieve size accepted from untrusted callers.
const MaxLimit = 10_000_000

// Sieve returns a slice of length n where entry i is true iff i is prime.
func Sieve(n int) []bool {
	if n <= 0 {
		return nil
	}
	s := make([]bool, n)
	for i := 2; i < n; i++ {
		s[i] = true
	}
	// Even numbers above 2.
	for m := 4; m < n; m += 2 {
		s[m] = false
	}
	// Odd multiples, starting at p*p.
	for p := 3; p*p < n; p += 2 {
		if !s[p] {
			continue
		}
		for m := p * p; m < n; m += 2 * p {
			s[m] = false
		}
	}
	return s
}

// Primes returns the primes strictly below limit.
func Primes(limit int) []int {
	var primes []int
	for i, isPrime := range Sieve(limit) {
		if isPrime {
			primes = append(primes, i)
		}
	}
	return primes
}

// CheckLimit validates a caller-supplied limit.
func CheckLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if limit > MaxLimit {
		return fmt.Errorf("limit %d exceeds maximum of %d", limit, MaxLimit)
	}
	return nil
}
