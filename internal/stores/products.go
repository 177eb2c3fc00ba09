package stores

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goShop/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProductStore implements catalog.Store on a products collection.
type MongoProductStore struct {
	coll *mongo.Collection
}

func NewMongoProductStore(coll *mongo.Collection) *MongoProductStore {
	return &MongoProductStore{coll: coll}
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Image       string             `bson:"image"`
	Category    string             `bson:"category"`
	IsFeatured  bool               `bson:"isFeatured"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDoc) product() catalog.Product {
	return catalog.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Image:       d.Image,
		Category:    d.Category,
		IsFeatured:  d.IsFeatured,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func docFromProduct(p catalog.Product, id primitive.ObjectID) productDoc {
	return productDoc{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func productFilter(f catalog.Filter) bson.M {
	filter := bson.M{}
	if f.FeaturedOnly {
		filter["isFeatured"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return filter
}

func (s *MongoProductStore) FindProducts(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	cur, err := s.coll.Find(ctx, productFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeProducts(ctx, cur)
}

func (s *MongoProductStore) FindProductByID(ctx context.Context, id string) (catalog.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return catalog.Product{}, catalog.ErrNotFound
	}
	var doc productDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return doc.product(), nil
}

// SaveProduct replaces the stored document for p.ID.
func (s *MongoProductStore) SaveProduct(ctx context.Context, p catalog.Product) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return catalog.ErrNotFound
	}
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, docFromProduct(p, oid))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *MongoProductStore) InsertProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	doc := docFromProduct(p, primitive.NewObjectID())
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return catalog.Product{}, err
	}
	return doc.product(), nil
}

func (s *MongoProductStore) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return catalog.ErrNotFound
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SampleProducts returns up to n random products as full documents.
func (s *MongoProductStore) SampleProducts(ctx context.Context, n int) ([]catalog.Product, error) {
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": n}}},
	})
	if err != nil {
		return nil, err
	}
	return decodeProducts(ctx, cur)
}

// CountProducts returns the number of product documents.
func (s *MongoProductStore) CountProducts(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]catalog.Product, error) {
	defer cur.Close(ctx)

	out := []catalog.Product{}
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.product())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
