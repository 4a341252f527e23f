package referral

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "referrals"

var ErrNotFound = errors.New("referral not found")

// Service is the referral data-access layer over the document store.
type Service struct {
	col *mongo.Collection
}

func NewService(db *mongo.Database) *Service {
	return &Service{col: db.Collection(collectionName)}
}

// Create inserts a new referral for the agency with status "new".
func (s *Service) Create(ctx context.Context, agencyID string, dto *IntakeDTO) (*Referral, error) {
	now := time.Now()
	r := &Referral{
		AgencyID:     agencyID,
		PatientName:  dto.PatientName,
		PatientPhone: dto.PatientPhone,
		PatientEmail: dto.PatientEmail,
		Insurance:    dto.Insurance,
		CareNeeds:    dto.CareNeeds,
		SourceID:     dto.SourceID,
		SourceName:   dto.SourceName,
		Status:       StatusNew,
		Notes:        dto.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	res, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return nil, err
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return r, nil
}

// List returns a page of the agency's referrals, newest first.
func (s *Service) List(ctx context.Context, agencyID, status string, page, size int) ([]Referral, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	filter := bson.M{"agencyId": agencyID}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := make([]Referral, 0, size)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByID fetches one referral, scoped to the agency.
func (s *Service) GetByID(ctx context.Context, agencyID, id string) (*Referral, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var r Referral
	err = s.col.FindOne(ctx, bson.M{"_id": oid, "agencyId": agencyID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Update patches staff-editable fields, scoped to the agency.
func (s *Service) Update(ctx context.Context, agencyID, id string, dto *UpdateDTO) (*Referral, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if dto.Status != nil {
		if !validStatus(*dto.Status) {
			return nil, errors.New("invalid status")
		}
		set["status"] = *dto.Status
	}
	if dto.Notes != nil {
		set["notes"] = *dto.Notes
	}
	if dto.SourceID != nil {
		set["sourceId"] = *dto.SourceID
	}

	res := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "agencyId": agencyID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var r Referral
	if err := res.Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Delete removes a referral, scoped to the agency.
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

// All streams every referral for the agency, newest first (export path).
func (s *Service) All(ctx context.Context, agencyID string) (*mongo.Cursor, error) {
	return s.col.Find(ctx,
		bson.M{"agencyId": agencyID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}
