package redisx

import (
	"fmt"
	"time"
)

const (
	// idem:order:create:{Idempotency-Key} -> numeric order id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)

func IdemOrderCreateKey(key string) string { return fmt.Sprintf(KeyIdemOrderCreate, key) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
