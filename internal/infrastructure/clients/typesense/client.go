package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/config"
	"github.com/Satyam1013/Free-Health-Camp-sub000/pkg/retry"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const (
	OfferingsCollection = "offerings"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	// Test connection with retry
	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Msg("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// OfferingsSchema describes the offerings collection
func OfferingsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: OfferingsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "kind", Type: "string", Facet: pointer.True()},
			{Name: "provider_id", Type: "string", Facet: pointer.True()},
			{Name: "provider_type", Type: "string", Facet: pointer.True()},
			{Name: "name", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "fee", Type: "float"},
			{Name: "ends_at", Type: "int64", Optional: pointer.True()},
			{Name: "indexed_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}
}

// InitSchema ensures the offerings collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == OfferingsCollection {
			log.Debug().Str("collection", OfferingsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	if _, err = c.client.Collections().Create(ctx, OfferingsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", OfferingsCollection).Msg("Created Typesense collection")
	return nil
}
