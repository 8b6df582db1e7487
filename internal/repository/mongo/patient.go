package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type PatientProfileRepository struct {
	coll *mongo.Collection
}

func NewPatientProfileRepository(db *mongo.Database) *PatientProfileRepository {
	return &PatientProfileRepository{coll: db.Collection(collectionPatients)}
}

var _ repository.PatientProfileRepository = (*PatientProfileRepository)(nil)

type mongoPatient struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	UserID           primitive.ObjectID `bson:"userId"`
	Gender           string             `bson:"gender"`
	Address          string             `bson:"address"`
	Allergies        string             `bson:"allergies"`
	Medications      string             `bson:"medications"`
	EmergencyContact *struct {
		Name         string `bson:"name"`
		Relationship string `bson:"relationship"`
		Phone        string `bson:"phone"`
	} `bson:"emergencyContact,omitempty"`
	InsuranceInfo *struct {
		Provider     string `bson:"provider"`
		PolicyNumber string `bson:"policyNumber"`
		ExpiryDate   string `bson:"expiryDate"`
	} `bson:"insuranceInfo,omitempty"`
}

func (d *mongoPatient) toModel() *model.PatientProfile {
	p := &model.PatientProfile{
		UserID:      d.UserID.Hex(),
		Gender:      d.Gender,
		Address:     d.Address,
		Allergies:   d.Allergies,
		Medications: d.Medications,
	}
	if ec := d.EmergencyContact; ec != nil {
		p.EmergencyContact = model.EmergencyContact{Name: ec.Name, Relationship: ec.Relationship, Phone: ec.Phone}
	}
	if ii := d.InsuranceInfo; ii != nil {
		p.InsuranceInfo = model.InsuranceInfo{Provider: ii.Provider, PolicyNumber: ii.PolicyNumber, ExpiryDate: ii.ExpiryDate}
	}
	return p
}

func (r *PatientProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoPatient
	if err := r.coll.FindOne(ctx, bson.M{"userId": oid}).Decode(&doc); err != nil {
		return nil, mapError(err, "find patient profile")
	}
	return doc.toModel(), nil
}

func (r *PatientProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"userId": oid}); err != nil {
		return mapError(err, "delete patient profile")
	}
	return nil
}
