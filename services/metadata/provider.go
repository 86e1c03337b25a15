package metadata

import (
	"context"
	"net/http"

	"github.com/rogeriocsilva/kompletionist/models"
)

// provider abstracts one remote catalog API. The movie and show catalogs
// differ in auth scheme (query-string key vs bearer token), response shape,
// and poster hosting; everything else about a fetch is shared, so the
// fetch loop works against this interface and picks the implementation by
// media kind.
type provider interface {
	kind() models.MediaKind

	// buildRequest prepares the detail request for one id, including
	// provider auth. For the show catalog this may trigger bearer-token
	// acquisition and can fail with ErrAuthentication.
	buildRequest(ctx context.Context, id string) (*http.Request, error)

	// extractImageRef pulls the poster reference out of a decoded detail
	// document, or returns "" when the document carries none.
	extractImageRef(doc map[string]any) string

	// imageRequest prepares the download request for a poster reference,
	// composing the provider image base URL for relative refs and adding
	// auth headers where the image host requires them.
	imageRequest(ctx context.Context, ref string) (*http.Request, error)

	// unauthorized is invoked after a 401 detail response so the provider
	// can drop stale credentials. The affected id stays pending; the next
	// fetch re-acquires.
	unauthorized()
}
