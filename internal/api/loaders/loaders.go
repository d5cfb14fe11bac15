package loaders

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/repositories"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the per-request batch loaders
type Loaders struct {
	ProviderLoader *dataloader.Loader[string, *entities.Provider]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(providerRepo repositories.ProviderRepository) *Loaders {
	return &Loaders{
		ProviderLoader: dataloader.NewBatchedLoader(
			func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Provider] {
				results := make([]*dataloader.Result[*entities.Provider], len(keys))
				found, err := providerRepo.GetByIDs(ctx, keys)

				byID := make(map[string]*entities.Provider, len(found))
				if err == nil {
					for _, p := range found {
						byID[p.ID] = p
					}
				}

				for i, key := range keys {
					if err != nil {
						results[i] = &dataloader.Result[*entities.Provider]{Error: err}
					} else if p, ok := byID[key]; ok {
						results[i] = &dataloader.Result[*entities.Provider]{Data: p}
					} else {
						results[i] = &dataloader.Result[*entities.Provider]{Error: apperrors.NewNotFoundError("provider " + key + " not found")}
					}
				}
				return results
			},
			dataloader.WithWait[string, *entities.Provider](2*time.Millisecond),
		),
	}
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches a fresh set of loaders to every request so batches never leak across callers
func Middleware(providerRepo repositories.ProviderRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(providerRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
