package release

import (
	"context"

	"github.com/quantstack/releash/internal/condaforge"
)

// FeedstockUpdater is the seam CondaForge uses to reach the feedstock.
type FeedstockUpdater interface {
	Update(ctx context.Context, pkg, version, url string, commit bool) (*condaforge.Result, error)
	Push(ctx context.Context, remote, branch string) error
}

// SetFeedstockUpdater replaces the feedstock used by t.
func (t *CondaForge) SetFeedstockUpdater(u FeedstockUpdater) {
	t.updater = func(*condaforge.Feedstock) feedstockUpdater { return u }
}
