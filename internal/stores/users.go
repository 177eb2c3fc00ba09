package stores

import (
	"context"
	"errors"
	"strings"
	"time"

	goShop "github.com/MrEthical07/goShop"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserStore implements goShop.UserStore on a users collection.
type MongoUserStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll, now: time.Now}
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) record() goShop.UserRecord {
	return goShop.UserRecord{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         roleOrCustomer(goShop.Role(d.Role)),
		CreatedAt:    d.CreatedAt,
	}
}

// roleOrCustomer maps a missing or unknown role to the least-privileged one.
func roleOrCustomer(r goShop.Role) goShop.Role {
	if !r.Valid() {
		return goShop.RoleCustomer
	}
	return r
}

// FindUserByID loads a user without its password hash.
func (s *MongoUserStore) FindUserByID(ctx context.Context, id string) (goShop.UserRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return goShop.UserRecord{}, goShop.ErrUserNotFound
	}
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	return s.findOne(ctx, bson.M{"_id": oid}, opts)
}

// FindUserByEmail loads a user, password hash included.
func (s *MongoUserStore) FindUserByEmail(ctx context.Context, email string) (goShop.UserRecord, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (goShop.UserRecord, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return goShop.UserRecord{}, goShop.ErrUserNotFound
	}
	if err != nil {
		return goShop.UserRecord{}, err
	}
	return doc.record(), nil
}

// CreateUser inserts user. A duplicate email returns goShop.ErrUserExists.
func (s *MongoUserStore) CreateUser(ctx context.Context, user goShop.UserRecord) (goShop.UserRecord, error) {
	now := s.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     strings.ToLower(strings.TrimSpace(user.Email)),
		Password:  user.PasswordHash,
		Role:      string(roleOrCustomer(user.Role)),
		CreatedAt: user.CreatedAt,
		UpdatedAt: now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if isDuplicateKey(err) {
			return goShop.UserRecord{}, goShop.ErrUserExists
		}
		return goShop.UserRecord{}, err
	}
	return doc.record(), nil
}

// UpdatePasswordHash replaces the stored hash for user id.
func (s *MongoUserStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return goShop.ErrUserNotFound
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": s.now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return goShop.ErrUserNotFound
	}
	return nil
}

// CountUsers returns the number of user documents.
func (s *MongoUserStore) CountUsers(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}
