package dto

import (
	"rigrent/internal/domain/availability"
	"rigrent/internal/domain/shared/daterange"
)

// CalendarBlock is a half-open blocked interval: From is the first blocked day
// and Until the first free one.
type CalendarBlock struct {
	From  string `json:"from"`
	Until string `json:"until"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Blocks    []CalendarBlock `json:"blocks"`
}

func MapCalendar(listingID string, blocks []availability.Block) Calendar {
	out := Calendar{ListingID: listingID, Blocks: make([]CalendarBlock, 0, len(blocks))}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, CalendarBlock{
			From:  daterange.FormatDate(b.Range.Start),
			Until: daterange.FormatDate(b.Range.End),
		})
	}
	return out
}

type Availability struct {
	ListingID string `json:"listing_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Available bool   `json:"available"`
}

type AvailabilityBatch struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Available []string `json:"available"`
	Booked    []string `json:"booked"`
	Failed    []string `json:"failed"`
}
