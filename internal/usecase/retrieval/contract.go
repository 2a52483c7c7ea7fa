package retrieval

import (
	"context"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// Loader produces the immutable documentation index. A load settles exactly
// once; the service does not retry a failed load.
type Loader interface {
	Load(ctx context.Context) (*docs.Index, docs.IndexMeta, error)
}
