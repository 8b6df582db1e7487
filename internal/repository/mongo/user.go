package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

type mongoUser struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Phone          *string            `bson:"phone,omitempty"`
	Role           string             `bson:"role"`
	Status         string             `bson:"status"`
	Specialization *string            `bson:"specialization,omitempty"`
	Bio            *string            `bson:"bio,omitempty"`
	Password       string             `bson:"password"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *mongoUser) toModel() *model.User {
	u := &model.User{
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Role:           model.Role(d.Role),
		Status:         model.UserStatus(d.Status),
		Specialization: d.Specialization,
		Bio:            d.Bio,
		PasswordHash:   d.Password,
	}
	u.ID = d.ID.Hex()
	u.CreatedAt = d.CreatedAt
	u.UpdatedAt = d.UpdatedAt
	return u
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	user.Touch(time.Now().UTC())
	doc := mongoUser{
		ID:             primitive.NewObjectID(),
		Name:           user.Name,
		Email:          user.Email,
		Phone:          user.Phone,
		Role:           string(user.Role),
		Status:         string(user.Status),
		Specialization: user.Specialization,
		Bio:            user.Bio,
		Password:       user.PasswordHash,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapError(err, "insert user")
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapError(err, "find user")
	}
	return doc.toModel(), nil
}

func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, userFilter(filter), opts)
	if err != nil {
		return nil, mapError(err, "find users")
	}
	defer cur.Close(ctx)

	users := []*model.User{}
	for cur.Next(ctx) {
		var doc mongoUser
		if err := cur.Decode(&doc); err != nil {
			return nil, mapError(err, "decode user")
		}
		users = append(users, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, mapError(err, "iterate users")
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, userFilter(filter))
	if err != nil {
		return 0, mapError(err, "count users")
	}
	return n, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"status":    string(status),
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return mapError(err, "update user status")
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index and the role/status index
// used by the dashboard counts.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return mapError(err, "create user indexes")
	}
	return nil
}

func userFilter(f model.UserFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}
