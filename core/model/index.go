package model

import "sort"

// Index maps the dataset's string IDs onto dense integer indexes. Location
// indexes feed the solver's location variables; the ordering is sorted by ID
// so that two solves of the same dataset build identical models.
type Index struct {
	LocationIDs   []string
	LocationIndex map[string]int
	DepotIndexes  []int

	minDepotManhours int64
}

// NewIndex builds the dense index for a dataset.
func NewIndex(d *Dataset) *Index {
	ids := make([]string, 0, len(d.Locations))
	for id := range d.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx := &Index{
		LocationIDs:   ids,
		LocationIndex: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		idx.LocationIndex[id] = i
		loc := d.Locations[id]
		if loc.Type != LocationDepot {
			continue
		}
		idx.DepotIndexes = append(idx.DepotIndexes, i)
		if len(idx.DepotIndexes) == 1 || loc.ManhoursPerShift < idx.minDepotManhours {
			idx.minDepotManhours = loc.ManhoursPerShift
		}
	}
	return idx
}

// MinDepotManhours is the smallest per-shift manhour budget among depots,
// clamped to at least one. It is the nominal shift capacity used to derive
// maintenance durations.
func (x *Index) MinDepotManhours() int64 {
	if x.minDepotManhours < 1 {
		return 1
	}
	return x.minDepotManhours
}

// CapableDepots returns the dense indexes of depots that may perform work
// requiring the given specialization. An empty specialization matches every
// depot.
func (x *Index) CapableDepots(d *Dataset, specialization string) []int {
	if specialization == "" {
		return x.DepotIndexes
	}
	var out []int
	for _, di := range x.DepotIndexes {
		loc := d.Locations[x.LocationIDs[di]]
		for _, s := range loc.SpecializedMaintenance {
			if s == specialization {
				out = append(out, di)
				break
			}
		}
	}
	return out
}
