package domain

import "cmp"

// CompareLevel orders entries by hierarchy Level only.
// Entries at the same Level compare equal.
func CompareLevel(a, b Entry) int {
	return cmp.Compare(a.Level, b.Level)
}

// Compare orders entries by Level, then by insertion sequence.
// It is a total order over the entries of one Trail.
func Compare(a, b Entry) int {
	if c := CompareLevel(a, b); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
