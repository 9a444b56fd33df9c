package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/domain"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("carts")}
}

// dbCartItem is the stored shape of a cart line. Prices are kept as strings:
// decimal.Decimal carries unexported fields bson reflection cannot round-trip.
type dbCartItem struct {
	ProductID         int64     `bson:"product_id"`
	Quantity          int32     `bson:"quantity"`
	UnitPriceSnapshot string    `bson:"unit_price_snapshot"`
	AddedAt           time.Time `bson:"added_at"`
}

type dbCart struct {
	ID        string       `bson:"_id,omitempty"`
	UserID    string       `bson:"user_id"`
	Items     []dbCartItem `bson:"items"`
	CreatedAt time.Time    `bson:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

func (m mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc dbCart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDoc(&doc)
}

func (m mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	doc := toDoc(cart)

	filter := bson.M{"user_id": cart.UserID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func toDoc(cart *domain.Cart) *dbCart {
	items := make([]dbCartItem, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = dbCartItem{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			UnitPriceSnapshot: it.UnitPriceSnapshot.String(),
			AddedAt:           it.AddedAt,
		}
	}
	return &dbCart{
		UserID:    cart.UserID,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func fromDoc(doc *dbCart) (*domain.Cart, error) {
	items := make([]domain.CartItem, len(doc.Items))
	for i, it := range doc.Items {
		price, err := decimal.NewFromString(it.UnitPriceSnapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", it.UnitPriceSnapshot, err)
		}
		items[i] = domain.CartItem{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			UnitPriceSnapshot: price,
			AddedAt:           it.AddedAt,
		}
	}
	return &domain.Cart{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Items:     items,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// ConnectMongoDB opens and verifies a mongo connection for the cart store.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
