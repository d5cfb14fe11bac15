package search

import (
	"testing"
	"time"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name  string
		query providers.OfferingQuery
		want  string
	}{
		{"empty", providers.OfferingQuery{}, ""},
		{"city", providers.OfferingQuery{City: "Pune"}, "city:=`Pune`"},
		{"city and kind", providers.OfferingQuery{City: "Pune", Kind: entities.OfferingKindEvent}, "city:=`Pune` && kind:=event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.query))
		})
	}
}

func TestDocumentConversion(t *testing.T) {
	endsAt := time.Unix(1700000000, 0)
	doc := &entities.OfferingDocument{
		ID:           "slot1",
		Kind:         entities.OfferingKindVisitSlot,
		ProviderID:   "vd1",
		ProviderType: entities.ProviderTypeVisitDoctor,
		Name:         "Home visit",
		City:         "Nagpur",
		Fee:          1000,
		EndsAt:       &endsAt,
	}

	raw := toDocument(doc, time.Unix(1600000000, 0))
	assert.Equal(t, int64(1600000000), raw["indexed_at"])
	assert.Equal(t, int64(1700000000), raw["ends_at"])

	// simulate the JSON number decoding Typesense responses go through
	raw["ends_at"] = float64(1700000000)
	back := fromDocument(raw)
	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, doc.Kind, back.Kind)
	assert.Equal(t, doc.ProviderType, back.ProviderType)
	assert.Equal(t, 1000.0, back.Fee)
	assert.True(t, endsAt.Equal(*back.EndsAt))
}
