package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rigrent/internal/domain/availability"
	domainbooking "rigrent/internal/domain/booking"
	"rigrent/internal/domain/listings"
)

const bookingsCollection = "agg_booking"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save writes the booking if the stored version still equals b.Version.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renter domainbooking.RenterID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"renter_id": string(renter)}, bson.D{{Key: "created_at", Value: -1}})
}

// ListByOwner returns every booking of the owner's listings; an empty status
// means all of them.
func (r *BookingRepository) ListByOwner(ctx context.Context, owner listings.OwnerID, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"owner_id": string(owner)}
	if status != "" {
		filter["status"] = string(status)
	}
	return r.find(ctx, filter, bson.D{{Key: "created_at", Value: -1}})
}

func (r *BookingRepository) ApprovedPeriods(ctx context.Context, listingID listings.ListingID) ([]domainavailability.BookedPeriod, error) {
	bookings, err := r.find(ctx, bson.M{
		"listing_id": string(listingID),
		"status":     string(domainbooking.StatusApproved),
	}, bson.D{{Key: "start", Value: 1}})
	if err != nil {
		return nil, err
	}
	periods := make([]domainavailability.BookedPeriod, 0, len(bookings))
	for _, b := range bookings {
		periods = append(periods, b.Period())
	}
	return periods, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func ensureBookingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

type bookingDocument struct {
	ID              string                 `bson:"_id"`
	ListingID       string                 `bson:"listing_id"`
	OwnerID         string                 `bson:"owner_id"`
	RenterID        string                 `bson:"renter_id"`
	RenterEmail     string                 `bson:"renter_email,omitempty"`
	Start           int64                  `bson:"start"`
	End             int64                  `bson:"end"`
	BufferDays      int                    `bson:"buffer_days"`
	Status          string                 `bson:"status"`
	Snapshot        domainbooking.Snapshot `bson:"snapshot"`
	Message         string                 `bson:"message,omitempty"`
	LicenseAttested bool                   `bson:"license_attested"`
	CreatedAt       int64                  `bson:"created_at"`
	UpdatedAt       int64                  `bson:"updated_at"`
	DecidedAt       *int64                 `bson:"decided_at,omitempty"`
	Version         int64                  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:              string(b.ID),
		ListingID:       string(b.ListingID),
		OwnerID:         string(b.OwnerID),
		RenterID:        string(b.RenterID),
		RenterEmail:     b.RenterEmail,
		Start:           b.Start.UnixMilli(),
		End:             b.End.UnixMilli(),
		BufferDays:      b.BufferDays,
		Status:          string(b.Status),
		Snapshot:        b.Snapshot,
		Message:         b.Message,
		LicenseAttested: b.LicenseAttested,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
	if b.DecidedAt != nil {
		ms := b.DecidedAt.UnixMilli()
		doc.DecidedAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ListingID:       listings.ListingID(d.ListingID),
		OwnerID:         listings.OwnerID(d.OwnerID),
		RenterID:        domainbooking.RenterID(d.RenterID),
		RenterEmail:     d.RenterEmail,
		Start:           timestampToTime(d.Start),
		End:             timestampToTime(d.End),
		BufferDays:      d.BufferDays,
		Status:          domainbooking.Status(d.Status),
		Snapshot:        d.Snapshot,
		Message:         d.Message,
		LicenseAttested: d.LicenseAttested,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.DecidedAt != nil {
		at := timestampToTime(*d.DecidedAt)
		b.DecidedAt = &at
	}
	if b.Snapshot.FinalizedAt != nil {
		at := b.Snapshot.FinalizedAt.UTC()
		b.Snapshot.FinalizedAt = &at
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
