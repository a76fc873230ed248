package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry records one published article.
type Entry struct {
	Slug        string    `json:"slug"         bson:"slug"`
	Title       string    `json:"title"        bson:"title"`
	Date        string    `json:"date"         bson:"date"`
	Path        string    `json:"path"         bson:"path"`
	Backend     string    `json:"backend"      bson:"backend"`
	PublishedAt time.Time `json:"published_at" bson:"published_at"`
}

// Manifest tracks which slugs a backend has already published.
type Manifest interface {
	Contains(ctx context.Context, slug string) (bool, error)
	Add(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
}

type manifestFile struct {
	Articles []Entry `json:"articles"`
}

// FileManifest is a JSON file of the form {"articles": [...]}.
type FileManifest struct {
	path string
	mu   sync.Mutex
}

// NewFileManifest creates a manifest stored at path. The file is created
// on the first Add.
func NewFileManifest(path string) *FileManifest {
	return &FileManifest{path: path}
}

// Path returns the manifest's file location.
func (m *FileManifest) Path() string { return m.path }

func (m *FileManifest) load() (*manifestFile, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &manifestFile{Articles: []Entry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", m.path, err)
	}
	if mf.Articles == nil {
		mf.Articles = []Entry{}
	}
	return &mf, nil
}

func (m *FileManifest) save(mf *manifestFile) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return os.Rename(tmp, m.path)
}

func (m *FileManifest) Contains(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mf, err := m.load()
	if err != nil {
		return false, err
	}
	for _, e := range mf.Articles {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *FileManifest) Add(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mf, err := m.load()
	if err != nil {
		return err
	}
	mf.Articles = append(mf.Articles, e)
	return m.save(mf)
}

func (m *FileManifest) List(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mf, err := m.load()
	if err != nil {
		return nil, err
	}
	return mf.Articles, nil
}

// MongoManifest keeps entries in a MongoDB collection, one document per
// backend and slug.
type MongoManifest struct {
	client     *mongo.Client
	collection *mongo.Collection
	backend    string
	logger     *slog.Logger
}

// ConnectMongo dials MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, nil
}

// NewMongoManifest scopes a collection to one backend's entries.
func NewMongoManifest(client *mongo.Client, database, collection, backend string, logger *slog.Logger) *MongoManifest {
	return &MongoManifest{
		client:     client,
		collection: client.Database(database).Collection(collection),
		backend:    backend,
		logger:     logger.With("component", "mongo_manifest", "backend", backend),
	}
}

func (m *MongoManifest) filter(slug string) bson.M {
	return bson.M{"backend": m.backend, "slug": slug}
}

func (m *MongoManifest) Contains(ctx context.Context, slug string) (bool, error) {
	n, err := m.collection.CountDocuments(ctx, m.filter(slug), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb count: %w", err)
	}
	return n > 0, nil
}

func (m *MongoManifest) Add(ctx context.Context, e Entry) error {
	e.Backend = m.backend
	_, err := m.collection.ReplaceOne(ctx, m.filter(e.Slug), e, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert: %w", err)
	}
	m.logger.Debug("manifest entry stored", "slug", e.Slug)
	return nil
}

func (m *MongoManifest) List(ctx context.Context) ([]Entry, error) {
	cur, err := m.collection.Find(ctx, bson.M{"backend": m.backend},
		options.Find().SetSort(bson.D{{Key: "published_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	return entries, nil
}
