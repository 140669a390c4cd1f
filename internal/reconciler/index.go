package reconciler

import "github.com/ginjaninja78/gstr2b-reconciliation/internal/types"

// keyIndex maps invoice keys to record positions. order lists keys by first
// appearance so iteration is deterministic.
type keyIndex struct {
	order  []string
	groups map[string][]int
}

func buildKeyIndex(records []types.Record) keyIndex {
	idx := keyIndex{groups: make(map[string][]int)}
	for i, r := range records {
		key := r.Key()
		if _, exists := idx.groups[key]; !exists {
			idx.order = append(idx.order, key)
		}
		idx.groups[key] = append(idx.groups[key], i)
	}
	return idx
}

// duplicates returns every record of every bucket holding more than one
// record, bucket by bucket.
func (idx keyIndex) duplicates(records []types.Record) []types.Record {
	var dups []types.Record
	for _, key := range idx.order {
		positions := idx.groups[key]
		if len(positions) < 2 {
			continue
		}
		for _, i := range positions {
			dups = append(dups, records[i])
		}
	}
	return dups
}
