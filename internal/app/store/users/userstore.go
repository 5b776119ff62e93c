package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds user accounts.
const Collection = "users"

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByID loads a user by the hex form of its ObjectID. A malformed id
// matches nothing.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// Insert stores u as given after normalizing the email. The caller applies
// registration defaults.
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = normalize.Email(u.Email)
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Claim gives a passwordless account its first digest, sets loginCount and
// merges fields. Only matches while the account still has no digest, so two
// concurrent claims cannot both win.
func (s *Store) Claim(ctx context.Context, id primitive.ObjectID, digest string, loginCount int64, fields map[string]string) error {
	set := bson.M{"password": digest, "loginCount": loginCount}
	for k, v := range fields {
		set[k] = v
	}
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"password": bson.M{"$exists": false}},
			bson.M{"password": nil},
			bson.M{"password": ""},
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpLoginCount increments loginCount and merges fields.
func (s *Store) BumpLoginCount(ctx context.Context, id primitive.ObjectID, fields map[string]string) error {
	update := bson.M{"$inc": bson.M{"loginCount": 1}}
	if len(fields) > 0 {
		set := bson.M{}
		for k, v := range fields {
			set[k] = v
		}
		update["$set"] = set
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// RecordLogin increments loginCount and stamps lastLogin.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"loginCount": 1},
		"$set": bson.M{"lastLogin": models.Timestamp(at)},
	})
	return err
}

// SetPassword replaces the digest of the user with email.
func (s *Store) SetPassword(ctx context.Context, email, digest string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"password": digest}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateByID $sets the given fields on the user with the hex id. Callers
// are responsible for restricting keys to models.UserUpdatableFields.
func (s *Store) UpdateByID(ctx context.Context, id string, set bson.M) (models.UpdateResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.UpdateResult{}, ErrNotFound
	}
	if len(set) == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return models.UpdateResult{}, err
		}
		return models.UpdateResult{Acknowledged: true, MatchedCount: n}, nil
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return models.UpdateResult{}, err
	}
	return models.Updated(res), nil
}

// SetRoleByEmail changes a user's role.
func (s *Store) SetRoleByEmail(ctx context.Context, email, role string) (models.UpdateResult, error) {
	return s.setByEmail(ctx, email, "role", role)
}

// SetStatusByEmail changes a user's account status.
func (s *Store) SetStatusByEmail(ctx context.Context, email, status string) (models.UpdateResult, error) {
	return s.setByEmail(ctx, email, "status", status)
}

func (s *Store) setByEmail(ctx context.Context, email, key, value string) (models.UpdateResult, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{key: value}},
	)
	if err != nil {
		return models.UpdateResult{}, err
	}
	return models.Updated(res), nil
}

// ListExcept returns every user except the one with email, ordered by email.
func (s *Store) ListExcept(ctx context.Context, email string) ([]models.User, error) {
	return s.find(ctx, bson.M{"email": bson.M{"$ne": normalize.Email(email)}})
}

// DonorFilter narrows ListDonors. Empty fields are ignored.
type DonorFilter struct {
	BloodGroup string
	District   string
	Upazila    string
}

// ListDonors returns users with role donor matching f.
func (s *Store) ListDonors(ctx context.Context, f DonorFilter) ([]models.User, error) {
	filter := bson.M{"role": models.RoleDonor}
	if f.BloodGroup != "" {
		filter["bloodGroup"] = f.BloodGroup
	}
	if f.District != "" {
		filter["district"] = f.District
	}
	if f.Upazila != "" {
		filter["upazila"] = f.Upazila
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "email", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
