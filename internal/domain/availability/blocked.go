package availability

import (
	"context"
	"time"

	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
)

// ErrUnavailable is returned when a probe overlaps a blocked interval.
var ErrUnavailable = errs.Conflict("dates_unavailable", "availability: requested dates are not available")

// BookedPeriod is the slice of a booking the calendar cares about. Start and
// End are the inclusive rental days as UTC midnights.
type BookedPeriod struct {
	BookingID  string
	Start      time.Time
	End        time.Time
	BufferDays int
	Approved   bool
}

// Block is a half-open interval during which the listing cannot be newly booked.
type Block struct {
	Range     daterange.DateRange
	Reference string
}

// PeriodSource reads the approved bookings of a listing.
type PeriodSource interface {
	ApprovedPeriods(ctx context.Context, listingID listings.ListingID) ([]BookedPeriod, error)
}

// BlockedIntervals derives [start, end+1+buffer) for every approved period,
// keeping input order. Overlapping blocks are not merged.
func BlockedIntervals(periods []BookedPeriod) []Block {
	blocks := make([]Block, 0, len(periods))
	for _, p := range periods {
		if !p.Approved {
			continue
		}
		buffer := p.BufferDays
		if buffer < 0 {
			buffer = 0
		}
		blocks = append(blocks, Block{
			Range: daterange.DateRange{
				Start: p.Start.UTC(),
				End:   daterange.AddDays(p.End.UTC(), 1+buffer),
			},
			Reference: p.BookingID,
		})
	}
	return blocks
}

// FirstConflict returns the first block the probe overlaps.
func FirstConflict(probe daterange.DateRange, blocks []Block) (Block, bool) {
	for _, block := range blocks {
		if probe.Overlaps(block.Range) {
			return block, true
		}
	}
	return Block{}, false
}

// CheckRange accepts the probe unless it intersects a block. Touching a block
// boundary is not an intersection.
func CheckRange(probe daterange.DateRange, blocks []Block) error {
	if err := probe.Validate(); err != nil {
		return err
	}
	if _, found := FirstConflict(probe, blocks); found {
		return ErrUnavailable
	}
	return nil
}

// Except drops periods belonging to bookingID, used when re-checking a
// booking against the others of its listing.
func Except(periods []BookedPeriod, bookingID string) []BookedPeriod {
	out := make([]BookedPeriod, 0, len(periods))
	for _, p := range periods {
		if p.BookingID == bookingID {
			continue
		}
		out = append(out, p)
	}
	return out
}
