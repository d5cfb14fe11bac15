package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	tsclient "github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements offering search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements OfferingIndex
var _ providers.OfferingIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts an offering document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.OfferingDocument) error {
	_, err := a.client.Client().Collection(tsclient.OfferingsCollection).Documents().Upsert(ctx, toDocument(doc, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to index offering: %w", err)
	}
	return nil
}

// Delete removes an offering from the index; a missing document is not an error
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.OfferingsCollection).Document(id).Delete(ctx)
	if err != nil {
		var httpErr *typesense.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete offering from index: %w", err)
	}
	return nil
}

// Search searches offerings by text with optional city and kind filters
func (a *TypesenseAdapter) Search(ctx context.Context, query providers.OfferingQuery) ([]*entities.OfferingDocument, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := strings.TrimSpace(query.Text)
	if q == "" {
		q = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,city"),
		PerPage: pointer.Int(limit),
	}
	if filter := buildFilter(query); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.OfferingsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search offerings: %w", err)
	}

	docs := []*entities.OfferingDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, fromDocument(*hit.Document))
	}
	return docs, nil
}

func buildFilter(query providers.OfferingQuery) string {
	var parts []string
	if query.City != "" {
		parts = append(parts, fmt.Sprintf("city:=`%s`", query.City))
	}
	if query.Kind != "" {
		parts = append(parts, fmt.Sprintf("kind:=%s", query.Kind))
	}
	return strings.Join(parts, " && ")
}

func toDocument(doc *entities.OfferingDocument, indexedAt time.Time) map[string]interface{} {
	document := map[string]interface{}{
		"id":            doc.ID,
		"kind":          string(doc.Kind),
		"provider_id":   doc.ProviderID,
		"provider_type": string(doc.ProviderType),
		"name":          doc.Name,
		"city":          doc.City,
		"fee":           doc.Fee,
		"indexed_at":    indexedAt.Unix(),
	}
	if doc.EndsAt != nil {
		document["ends_at"] = doc.EndsAt.Unix()
	}
	return document
}

// fromDocument rebuilds the projection; Typesense returns numbers as float64
func fromDocument(raw map[string]interface{}) *entities.OfferingDocument {
	doc := &entities.OfferingDocument{}
	doc.ID, _ = raw["id"].(string)
	doc.ProviderID, _ = raw["provider_id"].(string)
	doc.Name, _ = raw["name"].(string)
	doc.City, _ = raw["city"].(string)
	if v, ok := raw["kind"].(string); ok {
		doc.Kind = entities.OfferingKind(v)
	}
	if v, ok := raw["provider_type"].(string); ok {
		doc.ProviderType = entities.ProviderType(v)
	}
	if v, ok := raw["fee"].(float64); ok {
		doc.Fee = v
	}
	if v, ok := raw["ends_at"].(float64); ok {
		endsAt := time.Unix(int64(v), 0)
		doc.EndsAt = &endsAt
	}
	return doc
}
