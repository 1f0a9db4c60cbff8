package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ElementCount returns the product of dims. An empty shape is a scalar and
// counts as one element.
func ElementCount(dims []uint64) (uint64, error) {
	total := uint64(1)
	for i, d := range dims {
		next, err := SafeMultiply(total, d)
		if err != nil {
			return 0, fmt.Errorf("element count overflow at dimension %d: %w", i, err)
		}
		total = next
	}
	return total, nil
}

// StorageSize returns the byte size of an array of dims elements of elemSize bytes.
func StorageSize(dims []uint64, elemSize uint64) (uint64, error) {
	n, err := ElementCount(dims)
	if err != nil {
		return 0, err
	}
	size, err := SafeMultiply(n, elemSize)
	if err != nil {
		return 0, fmt.Errorf("storage size overflow (elements: %d, elem size: %d): %w", n, elemSize, err)
	}
	return size, nil
}
