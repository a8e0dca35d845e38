package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/database"
	"go-pizzeria-management/models"
)

const firstAccountSequence = "first_account"

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{collection: db.Collection(database.UserCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("an account with this email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *mongoUserRepository) List(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}

func userSet(change UserChange) bson.D {
	set := bson.D{{Key: "updated_at", Value: change.UpdatedAt}}
	if change.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *change.Name})
	}
	if change.Email != nil {
		set = append(set, bson.E{Key: "email", Value: strings.ToLower(strings.TrimSpace(*change.Email))})
	}
	if change.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *change.Role})
	}
	if change.Active != nil {
		set = append(set, bson.E{Key: "active", Value: *change.Active})
	}
	if change.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *change.Password})
	}
	if change.SoundNotifications != nil {
		set = append(set, bson.E{Key: "settings.sound_notifications", Value: *change.SoundNotifications})
	}
	if change.PreferredView != nil {
		set = append(set, bson.E{Key: "settings.preferred_view", Value: *change.PreferredView})
	}
	if change.LastLogin != nil {
		set = append(set, bson.E{Key: "last_login", Value: *change.LastLogin})
	}
	return set
}

func (r *mongoUserRepository) Update(ctx context.Context, id string, change UserChange) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}
	filter := bson.M{"_id": oid}
	if change.IfPassword != "" {
		filter["password"] = change.IfPassword
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: userSet(change)}}, opts).Decode(&user)
	switch {
	case err == nil:
		return &user, nil
	case mongo.IsDuplicateKeyError(err):
		return nil, apperrors.Conflict("an account with this email already exists")
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("updating user %s: %w", id, err)
	case change.IfPassword != "":
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, apperrors.Conflict("the password was changed by another request")
	default:
		return nil, apperrors.NotFound("user not found")
	}
}

// ClaimFirstAccount takes the first value of a dedicated counter, so only one
// registration can ever see 1.
func (r *mongoUserRepository) ClaimFirstAccount(ctx context.Context) (bool, error) {
	seq, err := database.NextSequence(ctx, r.collection.Database(), firstAccountSequence)
	if err != nil {
		return false, err
	}
	return seq == 1, nil
}

func (r *mongoUserRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}
