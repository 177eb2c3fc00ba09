package stores

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnalyticsData is the dashboard summary.
type AnalyticsData struct {
	Users        int64   `json:"users"`
	Products     int64   `json:"products"`
	TotalSales   int64   `json:"totalSales"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// MongoAnalytics computes AnalyticsData from the users, products and orders
// collections.
type MongoAnalytics struct {
	users    *mongo.Collection
	products *mongo.Collection
	orders   *mongo.Collection
}

func NewMongoAnalytics(db *mongo.Database) *MongoAnalytics {
	return &MongoAnalytics{
		users:    db.Collection(UsersCollection),
		products: db.Collection(ProductsCollection),
		orders:   db.Collection(OrdersCollection),
	}
}

// Summary counts users and products and totals orders. No orders yields zero
// sales and revenue.
func (a *MongoAnalytics) Summary(ctx context.Context) (AnalyticsData, error) {
	var out AnalyticsData

	users, err := a.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return AnalyticsData{}, err
	}
	products, err := a.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return AnalyticsData{}, err
	}
	out.Users, out.Products = users, products

	cur, err := a.orders.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalSales", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalRevenue", Value: bson.D{{Key: "$sum", Value: "$totalAmount"}}},
		}}},
	})
	if err != nil {
		return AnalyticsData{}, err
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		var row struct {
			TotalSales   int64   `bson:"totalSales"`
			TotalRevenue float64 `bson:"totalRevenue"`
		}
		if err := cur.Decode(&row); err != nil {
			return AnalyticsData{}, err
		}
		out.TotalSales, out.TotalRevenue = row.TotalSales, row.TotalRevenue
	}
	if err := cur.Err(); err != nil {
		return AnalyticsData{}, err
	}
	return out, nil
}
