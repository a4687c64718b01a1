package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockleague/backend/internal/domain"
)

const playersCollection = "players"

// PlayerRepository implements domain.PlayerRepository backed by a MongoDB
// collection. Trade mutations are expressed as single conditional updates so
// concurrent requests for the same player cannot produce lost updates or a
// negative cash balance.
type PlayerRepository struct {
	collection *mongo.Collection
}

// NewPlayerRepository creates a player repository on the given database.
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{collection: db.Collection(playersCollection)}
}

// playerDocument is the persisted shape of a player. Money fields are stored
// as Decimal128 so server-side comparisons and increments stay exact.
type playerDocument struct {
	ID               string                    `bson:"_id"`
	Name             string                    `bson:"name"`
	CashRemaining    primitive.Decimal128      `bson:"cashRemaining"`
	Portfolio        []holdingDocument         `bson:"portfolio"`
	HistoricalValues []historicalValueDocument `bson:"historicalValues"`
	CreatedAt        time.Time                 `bson:"createdAt"`
	UpdatedAt        time.Time                 `bson:"updatedAt"`
}

type holdingDocument struct {
	ID            string               `bson:"id"`
	Ticker        string               `bson:"ticker"`
	CompanyName   string               `bson:"companyName"`
	Shares        primitive.Decimal128 `bson:"shares"`
	PurchasePrice primitive.Decimal128 `bson:"purchasePrice"`
	PurchaseDate  time.Time            `bson:"purchaseDate"`
}

type historicalValueDocument struct {
	Date  time.Time            `bson:"date"`
	Value primitive.Decimal128 `bson:"value"`
}

// Create persists a new player.
func (r *PlayerRepository) Create(ctx context.Context, player *domain.Player) error {
	doc, err := toPlayerDocument(player)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// List retrieves all players ordered by creation time.
func (r *PlayerRepository) List(ctx context.Context) ([]*domain.Player, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []playerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}

	players := make([]*domain.Player, 0, len(docs))
	for i := range docs {
		player, err := toDomainPlayer(&docs[i])
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, nil
}

// GetByID retrieves a player by its ID.
func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	var doc playerDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return toDomainPlayer(&doc)
}

// AddHolding pushes the holding onto the portfolio and debits the cost from
// cash in one update, conditional on the player still having enough cash.
func (r *PlayerRepository) AddHolding(ctx context.Context, playerID uuid.UUID, holding domain.Holding, cost decimal.Decimal) error {
	doc, err := toHoldingDocument(&holding)
	if err != nil {
		return err
	}
	costDec, err := toDecimal128(cost)
	if err != nil {
		return err
	}
	debit, err := toDecimal128(cost.Neg())
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":           playerID.String(),
		"cashRemaining": bson.M{"$gte": costDec},
	}
	update := bson.M{
		"$push": bson.M{"portfolio": doc},
		"$inc":  bson.M{"cashRemaining": debit},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add holding: %w", err)
	}
	if res.MatchedCount == 0 {
		// The condition failed: distinguish an unknown player from one
		// that cannot afford the buy.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": playerID.String()})
		if err != nil {
			return fmt.Errorf("failed to add holding: %w", err)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientFunds
	}
	return nil
}

// RemoveHolding pulls the holding from the portfolio and credits the supplied
// value back to cash in one update, returning the updated player.
func (r *PlayerRepository) RemoveHolding(ctx context.Context, playerID, holdingID uuid.UUID, credit decimal.Decimal) (*domain.Player, error) {
	creditDec, err := toDecimal128(credit)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":          playerID.String(),
		"portfolio.id": holdingID.String(),
	}
	update := bson.M{
		"$pull": bson.M{"portfolio": bson.M{"id": holdingID.String()}},
		"$inc":  bson.M{"cashRemaining": creditDec},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc playerDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": playerID.String()})
		if countErr != nil {
			return nil, fmt.Errorf("failed to remove holding: %w", countErr)
		}
		if count == 0 {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove holding: %w", err)
	}
	return toDomainPlayer(&doc)
}

// AppendHistoricalValue pushes the snapshot and then prunes entries dated
// before cutoff. MongoDB rejects $push and $pull on the same array in one
// update, so the prune is a follow-up write on the same document.
func (r *PlayerRepository) AppendHistoricalValue(ctx context.Context, playerID uuid.UUID, entry domain.HistoricalValue, cutoff time.Time) error {
	value, err := toDecimal128(entry.Value)
	if err != nil {
		return err
	}
	doc := historicalValueDocument{Date: entry.Date.UTC(), Value: value}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": playerID.String()},
		bson.M{"$push": bson.M{"historicalValues": doc}},
	)
	if err != nil {
		return fmt.Errorf("failed to append historical value: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": playerID.String()},
		bson.M{"$pull": bson.M{"historicalValues": bson.M{"date": bson.M{"$lt": cutoff.UTC()}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to prune historical values: %w", err)
	}
	return nil
}

// DeleteAll removes every player.
func (r *PlayerRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to delete players: %w", err)
	}
	return nil
}

func toPlayerDocument(player *domain.Player) (*playerDocument, error) {
	cash, err := toDecimal128(player.CashRemaining)
	if err != nil {
		return nil, err
	}

	portfolio := make([]holdingDocument, 0, len(player.Portfolio))
	for i := range player.Portfolio {
		doc, err := toHoldingDocument(&player.Portfolio[i])
		if err != nil {
			return nil, err
		}
		portfolio = append(portfolio, *doc)
	}

	history := make([]historicalValueDocument, 0, len(player.HistoricalValues))
	for i := range player.HistoricalValues {
		value, err := toDecimal128(player.HistoricalValues[i].Value)
		if err != nil {
			return nil, err
		}
		history = append(history, historicalValueDocument{
			Date:  player.HistoricalValues[i].Date.UTC(),
			Value: value,
		})
	}

	return &playerDocument{
		ID:               player.ID.String(),
		Name:             player.Name,
		CashRemaining:    cash,
		Portfolio:        portfolio,
		HistoricalValues: history,
		CreatedAt:        player.CreatedAt.UTC(),
		UpdatedAt:        player.UpdatedAt.UTC(),
	}, nil
}

func toHoldingDocument(holding *domain.Holding) (*holdingDocument, error) {
	shares, err := toDecimal128(holding.Shares)
	if err != nil {
		return nil, err
	}
	price, err := toDecimal128(holding.PurchasePrice)
	if err != nil {
		return nil, err
	}
	return &holdingDocument{
		ID:            holding.ID.String(),
		Ticker:        holding.Ticker,
		CompanyName:   holding.CompanyName,
		Shares:        shares,
		PurchasePrice: price,
		PurchaseDate:  holding.PurchaseDate.UTC(),
	}, nil
}

func toDomainPlayer(doc *playerDocument) (*domain.Player, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid player id %q: %w", doc.ID, err)
	}
	cash, err := fromDecimal128(doc.CashRemaining)
	if err != nil {
		return nil, err
	}

	portfolio := make([]domain.Holding, 0, len(doc.Portfolio))
	for i := range doc.Portfolio {
		holding, err := toDomainHolding(&doc.Portfolio[i])
		if err != nil {
			return nil, err
		}
		portfolio = append(portfolio, *holding)
	}

	history := make([]domain.HistoricalValue, 0, len(doc.HistoricalValues))
	for i := range doc.HistoricalValues {
		value, err := fromDecimal128(doc.HistoricalValues[i].Value)
		if err != nil {
			return nil, err
		}
		history = append(history, domain.HistoricalValue{
			Date:  doc.HistoricalValues[i].Date,
			Value: value,
		})
	}

	return &domain.Player{
		ID:               id,
		Name:             doc.Name,
		CashRemaining:    cash,
		Portfolio:        portfolio,
		HistoricalValues: history,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}

func toDomainHolding(doc *holdingDocument) (*domain.Holding, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid holding id %q: %w", doc.ID, err)
	}
	shares, err := fromDecimal128(doc.Shares)
	if err != nil {
		return nil, err
	}
	price, err := fromDecimal128(doc.PurchasePrice)
	if err != nil {
		return nil, err
	}
	return &domain.Holding{
		ID:            id,
		Ticker:        doc.Ticker,
		CompanyName:   doc.CompanyName,
		Shares:        shares,
		PurchasePrice: price,
		PurchaseDate:  doc.PurchaseDate,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid decimal %q: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid stored decimal %q: %w", v.String(), err)
	}
	return d, nil
}
