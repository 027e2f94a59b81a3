package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julianstephens/salah/internal/constants"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
)

// FirestoreConfig selects the Firebase project and credentials.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string // service account JSON; empty uses application default credentials
}

// Firestore stores each user's record as the "data" field of a document in
// the salahUsers collection, keyed by user id.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore initializes a Firebase app and opens its Firestore client.
func NewFirestore(ctx context.Context, cfg FirestoreConfig) (*Firestore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var conf *firebase.Config
	if cfg.ProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	logger.Debug("Firestore client initialized", "project", cfg.ProjectID)
	return &Firestore{client: client, collection: constants.RemoteCollection}, nil
}

func (f *Firestore) Get(ctx context.Context, userID string) (*models.Patch, error) {
	snap, err := f.client.Collection(f.collection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read remote record: %w", err)
	}
	if !snap.Exists() {
		return nil, ErrNotFound
	}

	raw, err := snap.DataAt(constants.RemoteDataField)
	if err != nil {
		// Document exists without a data field: treat as an empty copy.
		return &models.Patch{}, nil
	}
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("remote %q field is %T, not an object", constants.RemoteDataField, raw)
	}
	return patchFromFields(fields)
}

func (f *Firestore) Set(ctx context.Context, userID string, rec models.Record) error {
	fields, err := fieldsFromRecord(rec)
	if err != nil {
		return err
	}
	_, err = f.client.Collection(f.collection).Doc(userID).Set(ctx, map[string]interface{}{
		constants.RemoteDataField: fields,
	})
	if err != nil {
		return fmt.Errorf("failed to write remote record: %w", err)
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// fieldsFromRecord converts rec to the plain map shape Firestore stores,
// keeping the JSON field names.
func fieldsFromRecord(rec models.Record) (map[string]interface{}, error) {
	data, err := json.Marshal(rec.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return fields, nil
}

func patchFromFields(fields map[string]interface{}) (*models.Patch, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode remote record: %w", err)
	}
	patch, err := models.ParsePatch(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode remote record: %w", err)
	}
	return &patch, nil
}

// IsNotFound reports whether err means the user has no remote copy.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
