package worker

import (
	"fmt"

	"github.com/stocklink/mo-reconcile/internal/recon"
	"github.com/stocklink/mo-reconcile/internal/redisx"
)

// MOPreviewKeys lists the resolution-preview cache keys of every MO whose
// lot was consumed by a set of results. An applied rewrite changes the
// lot quantity, so the cached preview must be dropped.
func MOPreviewKeys(results []recon.LineResult) []string {
	var keys []string
	seen := map[string]bool{}
	for _, r := range results {
		if r.State != recon.StateCommitted || r.MORef == "" || seen[r.MORef] {
			continue
		}
		seen[r.MORef] = true
		keys = append(keys, fmt.Sprintf(redisx.KeyMOResolve, r.MORef))
	}
	return keys
}
