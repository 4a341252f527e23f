// Package source manages referral-source relationships (the hospitals, case
// managers, and physicians that send an agency its referrals).
package source

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "referral_sources"

var ErrNotFound = errors.New("referral source not found")

// Source is a referral-source contact document, scoped by agencyId.
type Source struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgencyID     string             `bson:"agencyId"      json:"-"`
	Name         string             `bson:"name"          json:"name"`
	Organization string             `bson:"organization"  json:"organization,omitempty"`
	Role         string             `bson:"role"          json:"role,omitempty"`
	Email        string             `bson:"email"         json:"email,omitempty"`
	Phone        string             `bson:"phone"         json:"phone,omitempty"`
	Notes        string             `bson:"notes"         json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"     json:"created"`
	UpdatedAt    time.Time          `bson:"updatedAt"     json:"modified"`
}

type CreateDTO struct {
	Name         string `json:"name" binding:"required"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone"`
	Notes        string `json:"notes"`
}

type UpdateDTO struct {
	Name         *string `json:"name"`
	Organization *string `json:"organization"`
	Role         *string `json:"role"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Phone        *string `json:"phone"`
	Notes        *string `json:"notes"`
}

// Service is the referral-source data-access layer.
type Service struct {
	col *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{col: db.Collection(collectionName)}
}

func (s *Service) Create(ctx context.Context, agencyID string, dto *CreateDTO) (*Source, error) {
	now := time.Now()
	src := &Source{
		AgencyID:     agencyID,
		Name:         dto.Name,
		Organization: dto.Organization,
		Role:         dto.Role,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Notes:        dto.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.col.InsertOne(ctx, src)
	if err != nil {
		return nil, err
	}
	src.ID = res.InsertedID.(primitive.ObjectID)
	return src, nil
}

func (s *Service) List(ctx context.Context, agencyID string) ([]Source, error) {
	cur, err := s.col.Find(ctx,
		bson.M{"agencyId": agencyID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]Source, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, agencyID, id string) (*Source, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var src Source
	err = s.col.FindOne(ctx, bson.M{"_id": oid, "agencyId": agencyID}).Decode(&src)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Service) Update(ctx context.Context, agencyID, id string, dto *UpdateDTO) (*Source, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if dto.Name != nil {
		set["name"] = *dto.Name
	}
	if dto.Organization != nil {
		set["organization"] = *dto.Organization
	}
	if dto.Role != nil {
		set["role"] = *dto.Role
	}
	if dto.Email != nil {
		set["email"] = *dto.Email
	}
	if dto.Phone != nil {
		set["phone"] = *dto.Phone
	}
	if dto.Notes != nil {
		set["notes"] = *dto.Notes
	}

	res := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "agencyId": agencyID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var src Source
	if err := res.Decode(&src); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &src, nil
}

func (s *Service) Delete(ctx context.Context, agencyID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid, "agencyId": agencyID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
