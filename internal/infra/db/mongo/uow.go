package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	infraoutbox "rigrent/internal/infra/outbox"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Repositories are stateless; the session travels in the context returned by
// Unit.InjectContext.
type Factory struct {
	DB     *mongo.Database
	Outbox *infraoutbox.MongoStore
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{DB: db, Outbox: infraoutbox.NewMongoStore(db)}
}

// EnsureIndexes creates the secondary indexes the repositories query by.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureListingIndexes(ctx, db); err != nil {
		return err
	}
	return ensureBookingIndexes(ctx, db)
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	box := f.Outbox
	if box == nil {
		box = infraoutbox.NewMongoStore(f.DB)
	}
	return &Unit{
		session:  session,
		listings: NewListingRepository(f.DB),
		bookings: NewBookingRepository(f.DB),
		calendar: newCalendarGuard(f.DB),
		outbox:   box,
	}, nil
}

type Unit struct {
	session mongo.Session

	listings *ListingRepository
	bookings *BookingRepository
	calendar *calendarGuard
	outbox   *infraoutbox.MongoStore
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Calendar() uow.CalendarGuard {
	return u.calendar
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return u.outbox
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return translateTxnError(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

const transientTxnLabel = "TransientTransactionError"

// translateTxnError turns write conflicts between concurrent transactions
// into the retryable conflict the handlers already report.
func translateTxnError(err error) error {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel(transientTxnLabel) {
		return domainbooking.ErrConcurrentUpdate
	}
	return err
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
