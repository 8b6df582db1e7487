package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type AppointmentRepository struct {
	coll *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{coll: db.Collection(collectionAppointments)}
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

type mongoAppointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Patient   primitive.ObjectID `bson:"patient"`
	Therapist primitive.ObjectID `bson:"therapist"`
	Date      time.Time          `bson:"date"`
	Time      string             `bson:"time"`
	VisitType string             `bson:"visitType"`
	Type      string             `bson:"type"`
	Notes     string             `bson:"notes,omitempty"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *mongoAppointment) toModel() *model.Appointment {
	a := &model.Appointment{
		PatientID:   d.Patient.Hex(),
		TherapistID: d.Therapist.Hex(),
		Date:        d.Date.UTC(),
		Time:        d.Time,
		VisitType:   model.VisitType(d.VisitType),
		Type:        d.Type,
		Notes:       d.Notes,
		Status:      model.AppointmentStatus(d.Status),
	}
	a.ID = d.ID.Hex()
	a.CreatedAt = d.CreatedAt
	a.UpdatedAt = d.UpdatedAt
	return a
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	patient, err := objectID(appointment.PatientID)
	if err != nil {
		return err
	}
	therapist, err := objectID(appointment.TherapistID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	appointment.Touch(time.Now().UTC())
	doc := mongoAppointment{
		ID:        primitive.NewObjectID(),
		Patient:   patient,
		Therapist: therapist,
		Date:      appointment.Date,
		Time:      appointment.Time,
		VisitType: string(appointment.VisitType),
		Type:      appointment.Type,
		Notes:     appointment.Notes,
		Status:    string(appointment.Status),
		CreatedAt: appointment.CreatedAt,
		UpdatedAt: appointment.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapError(err, "insert appointment")
	}
	appointment.ID = doc.ID.Hex()
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAppointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapError(err, "find appointment")
	}
	return doc.toModel(), nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
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
		return mapError(err, "update appointment status")
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
