package availability

import (
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
)

// BlockSource is the pre-fetched calendar of one listing. Err records a
// failed fetch.
type BlockSource struct {
	Blocks []Block
	Err    error
}

type BatchResult struct {
	Available []listings.ListingID
	Booked    []listings.ListingID
	Failed    []listings.ListingID
}

// Partition applies CheckRange to every listing in ids order. A listing whose
// fetch failed, or that has no source at all, lands in Failed and is never
// reported available.
func Partition(probe daterange.DateRange, ids []listings.ListingID, sources map[listings.ListingID]BlockSource) BatchResult {
	result := BatchResult{
		Available: []listings.ListingID{},
		Booked:    []listings.ListingID{},
		Failed:    []listings.ListingID{},
	}
	seen := make(map[listings.ListingID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		source, ok := sources[id]
		if !ok || source.Err != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		if _, conflict := FirstConflict(probe, source.Blocks); conflict {
			result.Booked = append(result.Booked, id)
			continue
		}
		result.Available = append(result.Available, id)
	}
	return result
}
