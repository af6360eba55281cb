package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Reconciliation outcome per document: recon:{kind}:{doc_id} ->
	// JSON line outcomes (kind = order | shipment)
	KeyReconStatus = "recon:%s:%d"

	// MO resolution preview cache: mo:resolve:{ref}
	KeyMOResolve = "mo:resolve:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLMOResolve   = 5 * time.Minute
)
