package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	domainlistings "rigrent/internal/domain/listings"
)

const listingColumns = `id, owner_id, title, description, category, state, turnaround_days, min_rental_days, max_rental_days,
	license_required, license_type, daily_rate, deposit, delivery, services, photos, version, created_at, updated_at`

type ListingRepository struct {
	q queryer
}

func NewListingRepository(q queryer) *ListingRepository {
	return &ListingRepository{q: q}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, string(id))
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainlistings.ErrListingNotFound
	}
	return l, err
}

// Save inserts a new listing or updates the stored one if its version still
// equals l.Version.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	dailyRate, deposit, delivery, services, photos, err := encodeListingJSON(l)
	if err != nil {
		return err
	}
	next := l.Version + 1
	var res sql.Result
	if l.Version == 0 {
		res, err = r.q.ExecContext(ctx, `INSERT INTO listings (`+listingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (id) DO NOTHING`,
			string(l.ID), string(l.Owner), l.Title, l.Description, l.Category, string(l.State),
			l.TurnaroundDays, l.MinRentalDays, l.MaxRentalDays, l.LicenseRequired, l.LicenseType,
			dailyRate, deposit, delivery, services, photos, next, l.CreatedAt.UTC(), l.UpdatedAt.UTC())
	} else {
		res, err = r.q.ExecContext(ctx, `UPDATE listings SET
			title = $3, description = $4, category = $5, state = $6, turnaround_days = $7,
			min_rental_days = $8, max_rental_days = $9, license_required = $10, license_type = $11,
			daily_rate = $12, deposit = $13, delivery = $14, services = $15, photos = $16,
			version = $17, updated_at = $18
			WHERE id = $1 AND owner_id = $2 AND version = $19`,
			string(l.ID), string(l.Owner), l.Title, l.Description, l.Category, string(l.State),
			l.TurnaroundDays, l.MinRentalDays, l.MaxRentalDays, l.LicenseRequired, l.LicenseType,
			dailyRate, deposit, delivery, services, photos, next, l.UpdatedAt.UTC(), l.Version)
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	l.Version = next
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	query, args := searchQuery(params.Normalized())
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domainlistings.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func searchQuery(p domainlistings.SearchParams) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if p.Owner != "" {
		add("owner_id = $%d", string(p.Owner))
	}
	if p.OnlyPublished {
		add("state = $%d", string(domainlistings.ListingPublished))
	}
	if p.Category != "" {
		add("category = $%d", p.Category)
	}
	if len(p.IDs) > 0 {
		ids := make([]string, 0, len(p.IDs))
		for _, id := range p.IDs {
			ids = append(ids, string(id))
		}
		add("id = ANY($%d)", pq.Array(ids))
	}
	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, p.Limit, p.Offset)
	query += fmt.Sprintf(` ORDER BY updated_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*domainlistings.Listing, error) {
	var (
		l                                                 domainlistings.Listing
		id, owner, state                                  string
		dailyRate, deposit, delivery, services, photosRaw []byte
	)
	err := row.Scan(&id, &owner, &l.Title, &l.Description, &l.Category, &state,
		&l.TurnaroundDays, &l.MinRentalDays, &l.MaxRentalDays, &l.LicenseRequired, &l.LicenseType,
		&dailyRate, &deposit, &delivery, &services, &photosRaw, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.ID = domainlistings.ListingID(id)
	l.Owner = domainlistings.OwnerID(owner)
	l.State = domainlistings.ListingState(state)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{dailyRate, &l.DailyRate},
		{deposit, &l.Deposit},
		{delivery, &l.Delivery},
		{services, &l.Services},
		{photosRaw, &l.Photos},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode listing %s: %w", id, err)
		}
	}
	return &l, nil
}

func encodeListingJSON(l *domainlistings.Listing) (dailyRate, deposit, delivery, services, photos []byte, err error) {
	if dailyRate, err = json.Marshal(l.DailyRate); err != nil {
		return
	}
	if deposit, err = json.Marshal(l.Deposit); err != nil {
		return
	}
	if delivery, err = json.Marshal(l.Delivery); err != nil {
		return
	}
	if services, err = json.Marshal(l.Services); err != nil {
		return
	}
	p := l.Photos
	if p == nil {
		p = []string{}
	}
	photos, err = json.Marshal(p)
	return
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
