package listings

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// SearchParams filter listings for owner dashboards and browse pages.
type SearchParams struct {
	Owner         OwnerID
	IDs           []ListingID
	Category      string
	OnlyPublished bool
	Limit         int
	Offset        int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	return normalized
}

// Matches applies the non-paging filters to a listing.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if p.OnlyPublished && !l.Published() {
		return false
	}
	if p.Category != "" && l.Category != p.Category {
		return false
	}
	if len(p.IDs) > 0 {
		found := false
		for _, id := range p.IDs {
			if id == l.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
