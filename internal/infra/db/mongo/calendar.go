package mongo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rigrent/internal/domain/listings"
)

const calendarLocksCollection = "app_calendar_locks"

// calendarGuard bumps a per listing counter inside the unit's transaction.
// The write lock Mongo takes on that document is held until commit or abort,
// so a second transaction locking the same listing fails with a write
// conflict instead of approving an overlapping booking.
type calendarGuard struct {
	col *mongo.Collection

	mu   sync.Mutex
	held map[domainlistings.ListingID]struct{}
}

func newCalendarGuard(db *mongo.Database) *calendarGuard {
	return &calendarGuard{
		col:  db.Collection(calendarLocksCollection),
		held: make(map[domainlistings.ListingID]struct{}),
	}
}

func (g *calendarGuard) Lock(ctx context.Context, listingID domainlistings.ListingID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[listingID]; ok {
		return nil
	}
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"locked_at": time.Now().UTC()},
	}
	_, err := g.col.UpdateByID(ctx, string(listingID), update, options.Update().SetUpsert(true))
	if err != nil {
		return translateTxnError(err)
	}
	g.held[listingID] = struct{}{}
	return nil
}
