package catalog

import (
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
)

var (
	ErrAssetNotFound = fmt.Errorf("asset %w", errs.ErrNotFound)
	ErrAssetInUse    = fmt.Errorf("asset has orders: %w", errs.ErrConflict)
	ErrNotSeller     = fmt.Errorf("%w: seller must have role SELLER or ADMIN", errs.ErrInvalid)
)
