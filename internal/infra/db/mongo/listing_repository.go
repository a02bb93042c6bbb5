package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/money"
)

const listingsCollection = "agg_listing"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainlistings.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainlistings.ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	params = params.Normalized()
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cur, err := r.col.Find(ctx, searchFilter(params), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func searchFilter(p domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if p.Owner != "" {
		filter["owner_id"] = string(p.Owner)
	}
	if p.OnlyPublished {
		filter["state"] = string(domainlistings.ListingPublished)
	}
	if p.Category != "" {
		filter["category"] = p.Category
	}
	if len(p.IDs) > 0 {
		ids := make([]string, 0, len(p.IDs))
		for _, id := range p.IDs {
			ids = append(ids, string(id))
		}
		filter["_id"] = bson.M{"$in": ids}
	}
	return filter
}

func ensureListingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(listingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "category", Value: 1}}},
	})
	return err
}

type listingDocument struct {
	ID              string                        `bson:"_id"`
	OwnerID         string                        `bson:"owner_id"`
	Title           string                        `bson:"title"`
	Description     string                        `bson:"description,omitempty"`
	Category        string                        `bson:"category"`
	State           string                        `bson:"state"`
	TurnaroundDays  int                           `bson:"turnaround_days"`
	MinRentalDays   int                           `bson:"min_rental_days"`
	MaxRentalDays   int                           `bson:"max_rental_days"`
	LicenseRequired bool                          `bson:"license_required"`
	LicenseType     string                        `bson:"license_type,omitempty"`
	DailyRate       money.Money                   `bson:"daily_rate"`
	Deposit         money.Money                   `bson:"deposit"`
	Delivery        domainlistings.DeliveryConfig `bson:"delivery"`
	Services        domainlistings.Services       `bson:"services"`
	Photos          []string                      `bson:"photos,omitempty"`
	CreatedAt       int64                         `bson:"created_at"`
	UpdatedAt       int64                         `bson:"updated_at"`
	Version         int64                         `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:              string(l.ID),
		OwnerID:         string(l.Owner),
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		State:           string(l.State),
		TurnaroundDays:  l.TurnaroundDays,
		MinRentalDays:   l.MinRentalDays,
		MaxRentalDays:   l.MaxRentalDays,
		LicenseRequired: l.LicenseRequired,
		LicenseType:     l.LicenseType,
		DailyRate:       l.DailyRate,
		Deposit:         l.Deposit,
		Delivery:        l.Delivery,
		Services:        l.Services,
		Photos:          l.Photos,
		CreatedAt:       l.CreatedAt.UnixMilli(),
		UpdatedAt:       l.UpdatedAt.UnixMilli(),
		Version:         l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:              domainlistings.ListingID(d.ID),
		Owner:           domainlistings.OwnerID(d.OwnerID),
		Title:           d.Title,
		Description:     d.Description,
		Category:        d.Category,
		State:           domainlistings.ListingState(d.State),
		TurnaroundDays:  d.TurnaroundDays,
		MinRentalDays:   d.MinRentalDays,
		MaxRentalDays:   d.MaxRentalDays,
		LicenseRequired: d.LicenseRequired,
		LicenseType:     d.LicenseType,
		DailyRate:       d.DailyRate,
		Deposit:         d.Deposit,
		Delivery:        d.Delivery,
		Services:        d.Services,
		Photos:          d.Photos,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
