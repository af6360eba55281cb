package recon

import (
	"context"
	"fmt"
	"strconv"
)

// OrderEntryOptions builds the dropdown entries the host merges into its
// order-entry product selector: "MO:<id>" -> "MO: <ref> - <label>" for
// every MO currently resolvable.
func OrderEntryOptions(ctx context.Context, tx Tx) (map[string]string, error) {
	mos, err := tx.ListReadyMOs(ctx)
	if err != nil {
		return nil, persistErr("list mos", err)
	}
	out := make(map[string]string, len(mos))
	for _, mo := range mos {
		out["MO:"+strconv.FormatInt(mo.ID, 10)] = fmt.Sprintf("MO: %s - %s", mo.Ref, mo.Label)
	}
	return out, nil
}
