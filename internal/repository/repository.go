// repository.go
package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/normalize"
)

// The two physical order collections. Standard (water) orders and
// package orders live apart but behave as one logical collection.
const (
	CollectionStandard = "Orders"
	CollectionPackage  = "Order_S"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrNotPersisted = errors.New("write not acknowledged")
)

// ListQuery narrows a list read. CustomerID empty means all customers;
// From/To are inclusive bounds over created_at (order_date fallback).
type ListQuery struct {
	CustomerID string
	Status     string
	From       *time.Time
	To         *time.Time
}

// ResolveCollections maps the client's collection filter to the physical
// collections a query touches. Unrecognized or empty values mean both.
func ResolveCollections(filter string) []string {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "standard", "orders", "water":
		return []string{CollectionStandard}
	case "package", "packages", "order_s":
		return []string{CollectionPackage}
	default:
		return []string{CollectionStandard, CollectionPackage}
	}
}

// Mongo implementation
type MongoOrderRepository struct {
	db *mongo.Database
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{db: db}
}

// FindByID probes both collections and stops at the first hit; should
// an order_id ever appear in both, the standard collection wins.
func (m *MongoOrderRepository) FindByID(ctx context.Context, orderID string) (*model.Order, string, error) {
	for _, col := range []string{CollectionStandard, CollectionPackage} {
		var o model.Order
		err := m.db.Collection(col).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&o)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		o.SourceCollection = col
		return &o, col, nil
	}
	return nil, "", ErrNotFound
}

// List reads the matching documents from each selected collection, tags
// each with its source, applies the date range and sorts newest first.
func (m *MongoOrderRepository) List(ctx context.Context, q ListQuery, collections []string) ([]model.Order, error) {
	filter := bson.M{}
	if q.CustomerID != "" {
		filter["customer_id"] = q.CustomerID
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}

	var merged []model.Order
	for _, col := range collections {
		cur, err := m.db.Collection(col).Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		for cur.Next(ctx) {
			var o model.Order
			if err := cur.Decode(&o); err != nil {
				cur.Close(ctx)
				return nil, err
			}
			o.SourceCollection = col
			merged = append(merged, o)
		}
		if err := cur.Err(); err != nil {
			cur.Close(ctx)
			return nil, err
		}
		cur.Close(ctx)
	}

	merged = filterByDateRange(merged, q.From, q.To)
	sortNewestFirst(merged)
	return merged, nil
}

func (m *MongoOrderRepository) Insert(ctx context.Context, collection string, o *model.Order) error {
	res, err := m.db.Collection(collection).InsertOne(ctx, o)
	if err != nil {
		return err
	}
	if res.InsertedID == nil {
		return ErrNotPersisted
	}
	return nil
}

func (m *MongoOrderRepository) UpdateByID(ctx context.Context, collection, orderID string, set bson.M) error {
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) DeleteByID(ctx context.Context, collection, orderID string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"order_id": orderID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// effectiveTime is the timestamp an order is filtered and sorted by:
// created_at, falling back to order_date, falling back to epoch zero so
// dateless records sort to the end.
func effectiveTime(o model.Order) time.Time {
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt
	}
	if t, ok := normalize.ParseDate(o.OrderDate); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

func filterByDateRange(orders []model.Order, from, to *time.Time) []model.Order {
	if from == nil && to == nil {
		return orders
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		candidate := o.CreatedAt
		if candidate.IsZero() {
			parsed, ok := normalize.ParseDate(o.OrderDate)
			if !ok {
				continue
			}
			candidate = parsed
		}
		if from != nil && candidate.Before(*from) {
			continue
		}
		if to != nil && candidate.After(*to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func sortNewestFirst(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return effectiveTime(orders[i]).After(effectiveTime(orders[j]))
	})
}
