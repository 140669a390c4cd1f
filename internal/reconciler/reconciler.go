// =============================================================================
// GSTR-2B Reconciler - Reconciliation Engine
// =============================================================================
//
// This module classifies two canonical record collections (2B and Books) into
// disjoint outcome groups keyed by invoice identity (GSTIN + invoice number).
//
// RECONCILIATION PASSES:
//   1. Group each dataset by invoice key (first-appearance order)
//   2. Flag every member of a bucket with more than one record as duplicate
//   3. Match 2B records to un-consumed Books records with the same key
//   4. Classify unpaired records as missing on the other side
//   5. Offer same-GSTIN, same-amount probable matches for missing 2B records
//   6. Count everything
//
// INDEXING:
//   Records are addressed by their position in the input slice. A Books
//   record consumed as a match partner is marked in a []bool, so the same
//   Books record is never paired twice within one run.
//
// =============================================================================

package reconciler

import (
	"github.com/ginjaninja78/gstr2b-reconciliation/internal/types"
	"github.com/shopspring/decimal"
)

// ProbableMatchReason is attached to every probable match.
const ProbableMatchReason = "GSTIN + amount match; invoice no differs"

// Diff names a field that disagrees between a matched pair.
type Diff string

const (
	DiffDate  Diff = "Date"
	DiffValue Diff = "Value"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Pair is a 2B record together with its Books partner.
type Pair struct {
	TwoB  types.Record
	Books types.Record
}

// Mismatch is a same-key pair that disagrees on date and/or value.
type Mismatch struct {
	Pair
	Diffs []Diff
}

// ProbableMatch is a weaker candidate pairing found across invoice numbers.
type ProbableMatch struct {
	Pair
	Reason string
}

// Summary holds the count of every grouping plus the input sizes.
type Summary struct {
	Total2B         int `json:"total2B"`
	TotalBooks      int `json:"totalBooks"`
	ExactMatches    int `json:"exactMatches"`
	ValueMismatches int `json:"valueMismatches"`
	MissingInBooks  int `json:"missingInBooks"`
	MissingIn2B     int `json:"missingIn2B"`
	ProbableMatches int `json:"probableMatches"`
	Duplicate2B     int `json:"duplicate2B"`
	DuplicateBooks  int `json:"duplicateBooks"`
}

// Result is the outcome of one reconciliation.
type Result struct {
	ExactMatches    []Pair
	ValueMismatches []Mismatch
	MissingInBooks  []types.Record
	MissingIn2B     []types.Record
	ProbableMatches []ProbableMatch
	Duplicate2B     []types.Record
	DuplicateBooks  []types.Record
	Summary         Summary
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the comparison.
type Options struct {
	// Tolerance is the largest absolute amount difference still treated as
	// equal. It is expected to be non-negative.
	Tolerance decimal.Decimal
}

// DefaultOptions returns a tolerance of one currency unit.
func DefaultOptions() Options {
	return Options{
		Tolerance: decimal.NewFromInt(1),
	}
}

// =============================================================================
// MAIN RECONCILIATION FUNCTION
// =============================================================================

// Reconcile reconciles 2B against Books with the default options.
func Reconcile(twoB, books []types.Record) Result {
	return ReconcileWithOptions(twoB, books, DefaultOptions())
}

// ReconcileWithOptions reconciles 2B against Books. It never fails: values
// that cannot be compared simply do not produce a discrepancy.
func ReconcileWithOptions(twoB, books []types.Record, opts Options) Result {
	tolerance := opts.Tolerance

	twoBIndex := buildKeyIndex(twoB)
	booksIndex := buildKeyIndex(books)

	var result Result

	// Duplicates depend on grouping alone.
	result.Duplicate2B = twoBIndex.duplicates(twoB)
	result.DuplicateBooks = booksIndex.duplicates(books)

	// =========================================================================
	// MATCHING PASS
	// =========================================================================

	consumed := make([]bool, len(books))
	paired2B := make([]bool, len(twoB))

	for _, key := range twoBIndex.order {
		candidates := booksIndex.groups[key]

		for _, i := range twoBIndex.groups[key] {
			partner, diffs := findPartner(twoB[i], books, candidates, consumed, tolerance)
			if partner < 0 {
				continue
			}

			consumed[partner] = true
			paired2B[i] = true

			pair := Pair{TwoB: twoB[i], Books: books[partner]}
			if len(diffs) == 0 {
				result.ExactMatches = append(result.ExactMatches, pair)
			} else {
				result.ValueMismatches = append(result.ValueMismatches, Mismatch{Pair: pair, Diffs: diffs})
			}
		}
	}

	// =========================================================================
	// MISSING CLASSIFICATION
	// =========================================================================

	for _, key := range twoBIndex.order {
		for _, i := range twoBIndex.groups[key] {
			if !paired2B[i] {
				result.MissingInBooks = append(result.MissingInBooks, twoB[i])
			}
		}
	}

	for _, key := range booksIndex.order {
		for _, j := range booksIndex.groups[key] {
			if !consumed[j] {
				result.MissingIn2B = append(result.MissingIn2B, books[j])
			}
		}
	}

	// =========================================================================
	// PROBABLE-MATCH PASS
	// =========================================================================
	// Partners are not consumed here and missing records stay missing.

	byGSTIN := make(map[string][]int)
	for j, b := range books {
		byGSTIN[b.GSTIN] = append(byGSTIN[b.GSTIN], j)
	}

	for _, tw := range result.MissingInBooks {
		for _, j := range byGSTIN[tw.GSTIN] {
			if isProbable(tw, books[j], tolerance) {
				result.ProbableMatches = append(result.ProbableMatches, ProbableMatch{
					Pair:   Pair{TwoB: tw, Books: books[j]},
					Reason: ProbableMatchReason,
				})
				break
			}
		}
	}

	result.Summary = Summary{
		Total2B:         len(twoB),
		TotalBooks:      len(books),
		ExactMatches:    len(result.ExactMatches),
		ValueMismatches: len(result.ValueMismatches),
		MissingInBooks:  len(result.MissingInBooks),
		MissingIn2B:     len(result.MissingIn2B),
		ProbableMatches: len(result.ProbableMatches),
		Duplicate2B:     len(result.Duplicate2B),
		DuplicateBooks:  len(result.DuplicateBooks),
	}

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// findPartner scans the same-key Books candidates for tw. The first exact
// candidate wins outright. Otherwise the first discrepant candidate is
// returned with its diffs. A negative index means no un-consumed candidate.
func findPartner(tw types.Record, books []types.Record, candidates []int, consumed []bool, tolerance decimal.Decimal) (int, []Diff) {
	provisional := -1
	var provisionalDiffs []Diff

	for _, j := range candidates {
		if consumed[j] {
			continue
		}

		diffs := compare(tw, books[j], tolerance)
		if len(diffs) == 0 {
			return j, nil
		}
		if provisional < 0 {
			provisional = j
			provisionalDiffs = diffs
		}
	}

	return provisional, provisionalDiffs
}

// compare returns the fields on which a and b disagree.
func compare(a, b types.Record, tolerance decimal.Decimal) []Diff {
	var diffs []Diff

	if a.HasDate() && b.HasDate() && a.InvoiceDate != b.InvoiceDate {
		diffs = append(diffs, DiffDate)
	}

	x, okA := value(a)
	y, okB := value(b)
	if okA && okB && x.Sub(y).Abs().GreaterThan(tolerance) {
		diffs = append(diffs, DiffValue)
	}

	return diffs
}

// isProbable reports whether b is a probable match for a: amounts within
// tolerance and both sides dated. GSTIN equality is the caller's concern.
func isProbable(a, b types.Record, tolerance decimal.Decimal) bool {
	if !a.HasDate() || !b.HasDate() {
		return false
	}
	x, okA := value(a)
	y, okB := value(b)
	return okA && okB && x.Sub(y).Abs().LessThanOrEqual(tolerance)
}

// value returns the amount a record is compared on: TotalValue, falling back
// to TaxableValue. Each side is resolved on its own.
func value(r types.Record) (decimal.Decimal, bool) {
	if r.TotalValue.Valid {
		return r.TotalValue.Decimal, true
	}
	if r.TaxableValue.Valid {
		return r.TaxableValue.Decimal, true
	}
	return decimal.Decimal{}, false
}
