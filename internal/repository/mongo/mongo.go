package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/physiome/admin-api/internal/repository"
)

const defaultTimeout = 10 * time.Second

const (
	collectionUsers        = "users"
	collectionPatients     = "patients"
	collectionAppointments = "appointments"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// NewStore wires the mongo repositories around one database handle.
func NewStore(client *mongo.Client, db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(db),
		Profiles:     NewPatientProfileRepository(db),
		Appointments: NewAppointmentRepository(db),
		Pinger:       pinger{client: client},
		Close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}
}

type pinger struct {
	client *mongo.Client
}

func (p pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}

// objectID parses a hex id. Malformed ids cannot match a document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

func mapError(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
