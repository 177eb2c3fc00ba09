package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	goShop "github.com/MrEthical07/goShop"
	"github.com/MrEthical07/goShop/catalog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoUserStore(t *testing.T) {
	mt := mockT(t)
	ctx := context.Background()
	oid := primitive.NewObjectID()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mt.Run("find by email", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Ada"},
			{Key: "email", Value: "ada@example.com"},
			{Key: "password", Value: "$argon2id$hash"},
			{Key: "role", Value: "admin"},
			{Key: "createdAt", Value: created},
		}))

		u, err := store.FindUserByEmail(ctx, " Ada@Example.com ")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.ID != oid.Hex() || u.Role != goShop.RoleAdmin || u.PasswordHash != "$argon2id$hash" {
			t.Fatalf("unexpected record %+v", u)
		}
		if !u.CreatedAt.Equal(created) {
			t.Fatalf("unexpected createdAt %v", u.CreatedAt)
		}
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		if _, err := store.FindUserByID(ctx, oid.Hex()); !errors.Is(err, goShop.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("find by malformed id", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		if _, err := store.FindUserByID(ctx, "not-an-object-id"); !errors.Is(err, goShop.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("create", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := store.CreateUser(ctx, goShop.UserRecord{Name: "Bo", Email: "BO@example.com", PasswordHash: "h"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID == "" || u.Email != "bo@example.com" || u.Role != goShop.RoleCustomer {
			t.Fatalf("unexpected record %+v", u)
		}
	})

	mt.Run("unknown role loads as customer", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "email", Value: "eve@example.com"},
			{Key: "role", Value: "superuser"},
		}))

		u, err := store.FindUserByID(ctx, oid.Hex())
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.Role != goShop.RoleCustomer {
			t.Fatalf("expected customer role, got %q", u.Role)
		}
	})

	mt.Run("create with unknown role", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := store.CreateUser(ctx, goShop.UserRecord{Name: "Eve", Email: "eve@example.com", Role: "root"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.Role != goShop.RoleCustomer {
			t.Fatalf("expected customer role, got %q", u.Role)
		}
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: shop.users index: email_1",
		}))

		if _, err := store.CreateUser(ctx, goShop.UserRecord{Name: "Bo", Email: "bo@example.com"}); !errors.Is(err, goShop.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("update hash", func(mt *mtest.T) {
		store := NewMongoUserStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		if err := store.UpdatePasswordHash(ctx, oid.Hex(), "new"); err != nil {
			t.Fatalf("update: %v", err)
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		if err := store.UpdatePasswordHash(ctx, oid.Hex(), "new"); !errors.Is(err, goShop.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestMongoProductStore(t *testing.T) {
	mt := mockT(t)
	ctx := context.Background()
	oid := primitive.NewObjectID()

	productDocD := bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Jacket"},
		{Key: "price", Value: 99.5},
		{Key: "category", Value: "jackets"},
		{Key: "isFeatured", Value: true},
	}

	mt.Run("find featured", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, productDocD))

		products, err := store.FindProducts(ctx, catalog.Filter{FeaturedOnly: true})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(products) != 1 || products[0].ID != oid.Hex() || !products[0].IsFeatured || products[0].Price != 99.5 {
			t.Fatalf("unexpected products %+v", products)
		}
	})

	mt.Run("find empty returns non-nil slice", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		products, err := store.FindProducts(ctx, catalog.Filter{})
		if err != nil || products == nil || len(products) != 0 {
			t.Fatalf("expected empty slice, got %#v err=%v", products, err)
		}
	})

	mt.Run("find by id", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, productDocD))
		p, err := store.FindProductByID(ctx, oid.Hex())
		if err != nil || p.Name != "Jacket" {
			t.Fatalf("unexpected product %+v err=%v", p, err)
		}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		if _, err := store.FindProductByID(ctx, oid.Hex()); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("save", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		if err := store.SaveProduct(ctx, catalog.Product{ID: oid.Hex(), Name: "Jacket"}); err != nil {
			t.Fatalf("save: %v", err)
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		if err := store.SaveProduct(ctx, catalog.Product{ID: oid.Hex()}); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("insert and delete", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		p, err := store.InsertProduct(ctx, catalog.Product{Name: "Hat", Price: 10})
		if err != nil || p.ID == "" {
			t.Fatalf("insert: %+v err=%v", p, err)
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		if err := store.DeleteProduct(ctx, p.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		if err := store.DeleteProduct(ctx, p.ID); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("sample", func(mt *mtest.T) {
		store := NewMongoProductStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, productDocD))
		products, err := store.SampleProducts(ctx, 4)
		if err != nil || len(products) != 1 {
			t.Fatalf("sample: %+v err=%v", products, err)
		}
		if p := products[0]; !p.IsFeatured || p.Category != "jackets" {
			t.Fatalf("sampled product lost fields: %+v", p)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "aggregate" {
			t.Fatalf("expected aggregate command, got %+v", evt)
		}
		stages, err := evt.Command.LookupErr("pipeline")
		if err != nil {
			t.Fatalf("pipeline: %v", err)
		}
		values, err := stages.Array().Values()
		if err != nil || len(values) != 1 {
			t.Fatalf("expected a single $sample stage, got %v err=%v", stages, err)
		}
		if _, err := values[0].Document().LookupErr("$sample"); err != nil {
			t.Fatalf("expected $sample stage, got %v", values[0])
		}
	})
}

func TestMongoAnalytics(t *testing.T) {
	mt := mockT(t)
	ctx := context.Background()

	mt.Run("summary", func(mt *mtest.T) {
		a := NewMongoAnalytics(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(12)}}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".products", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".orders", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: nil},
				{Key: "totalSales", Value: int64(3)},
				{Key: "totalRevenue", Value: 250.75},
			}),
		)

		got, err := a.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		want := AnalyticsData{Users: 12, Products: 7, TotalSales: 3, TotalRevenue: 250.75}
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	})

	mt.Run("no orders", func(mt *mtest.T) {
		a := NewMongoAnalytics(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".products", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(0)}}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".orders", mtest.FirstBatch),
		)

		got, err := a.Summary(ctx)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if got.TotalSales != 0 || got.TotalRevenue != 0 || got.Users != 1 {
			t.Fatalf("unexpected summary %+v", got)
		}
	})
}
