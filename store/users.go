package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Users is the MongoDB backed user store.
type Users struct {
	coll *mongo.Collection
}

func NewUsers(coll *mongo.Collection) *Users {
	return &Users{coll: coll}
}

func (s *Users) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Users) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetProjection(bson.M{"password": 0, "resetPasswordToken": 0, "resetPasswordExpire": 0})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Save replaces the stored user document.
func (s *Users) Save(ctx context.Context, u *models.User) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("save user %s: %w", u.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Users) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expire time.Time) error {
	update := bson.M{"$set": bson.M{"resetPasswordToken": tokenHash, "resetPasswordExpire": expire}}
	return s.updateByID(ctx, id, update)
}

func (s *Users) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""}}
	return s.updateByID(ctx, id, update)
}

// ConsumeResetToken swaps the password and clears the reset fields in one
// write, so a token matches at most once.
func (s *Users) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) error {
	filter := bson.M{
		"resetPasswordToken":  tokenHash,
		"resetPasswordExpire": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": now},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		s.clearExpiredResetToken(ctx, tokenHash, now)
		return models.ErrResetTokenInvalid
	}
	return nil
}

// clearExpiredResetToken drops the reset fields of a record whose token
// matched but has expired.
func (s *Users) clearExpiredResetToken(ctx context.Context, tokenHash string, now time.Time) {
	filter := bson.M{
		"resetPasswordToken":  tokenHash,
		"resetPasswordExpire": bson.M{"$lte": now},
	}
	update := bson.M{"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""}}
	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		log.Printf("Failed to clear expired reset token: %v", err)
	}
}

func (s *Users) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Users) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
