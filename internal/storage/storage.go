package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oicur0t/boardlog/pkg/models"
	"github.com/oicur0t/boardlog/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var invalidCollectionChars = regexp.MustCompile(`[^a-z0-9_]`)

// Options configures the MongoDB summary store
type Options struct {
	URI              string
	Database         string
	CollectionPrefix string
	Timeout          time.Duration
	TLSConfig        *tls.Config
	Retry            retry.Config
}

// Storage publishes board summaries to MongoDB
type Storage struct {
	client           *mongo.Client
	database         *mongo.Database
	collectionPrefix string
	timeout          time.Duration
	retryConfig      retry.Config
	logger           *zap.Logger

	indexMu sync.Mutex
	indexed map[string]bool
}

// NewStorage connects to MongoDB and verifies the connection
func NewStorage(ctx context.Context, opts Options, logger *zap.Logger) (*Storage, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.TLSConfig != nil {
		clientOpts.SetTLSConfig(opts.TLSConfig)
		if len(opts.TLSConfig.Certificates) > 0 {
			clientOpts.SetAuth(options.Credential{
				AuthMechanism: "MONGODB-X509",
			})
		}
	}

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", opts.Database))

	return &Storage{
		client:           client,
		database:         client.Database(opts.Database),
		collectionPrefix: opts.CollectionPrefix,
		timeout:          opts.Timeout,
		retryConfig:      opts.Retry,
		logger:           logger,
		indexed:          make(map[string]bool),
	}, nil
}

// Publish upserts the summary of one board, keyed by run and board name
func (s *Storage) Publish(ctx context.Context, runID string, summary models.BoardSummary) error {
	collName := CollectionName(s.collectionPrefix, summary.Vendor)
	collection := s.database.Collection(collName)

	if err := s.ensureIndexes(ctx, collection); err != nil {
		// Don't fail the publish if index creation fails
		s.logger.Error("Failed to ensure indexes", zap.Error(err), zap.String("collection", collName))
	}

	doc := NewDocument(runID, summary, time.Now().UTC())
	filter := bson.D{
		{Key: "run_id", Value: runID},
		{Key: "board", Value: summary.Board},
	}

	err := retry.Do(ctx, s.retryConfig, func() error {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		_, err := collection.ReplaceOne(opCtx, filter, doc, options.Replace().SetUpsert(true))
		if err != nil && !isTransient(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish summary for board %s: %w", summary.Board, err)
	}

	s.logger.Debug("Summary published",
		zap.String("collection", collName),
		zap.String("board", summary.Board))
	return nil
}

// ensureIndexes creates the lookup indexes once per collection
func (s *Storage) ensureIndexes(ctx context.Context, collection *mongo.Collection) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if s.indexed[collection.Name()] {
		return nil
	}

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "run_id", Value: 1},
				{Key: "board", Value: 1},
			},
			Options: options.Index().SetName("run_board").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "board", Value: 1},
				{Key: "generated_at", Value: -1},
			},
			Options: options.Index().SetName("board_generated_at"),
		},
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(opCtx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	s.indexed[collection.Name()] = true
	return nil
}

// Close closes the MongoDB connection
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// NewDocument builds the stored form of a board summary
func NewDocument(runID string, summary models.BoardSummary, generatedAt time.Time) models.SummaryDocument {
	return models.SummaryDocument{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Summary:     summary,
	}
}

// CollectionName creates a valid collection name from a vendor name
func CollectionName(prefix, vendor string) string {
	name := invalidCollectionChars.ReplaceAllString(strings.ToLower(vendor), "_")
	if name == "" {
		name = "unknown"
	}
	return prefix + name
}

func isTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
