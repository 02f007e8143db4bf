// formatação de valores numéricos em headers (Retry-After, X-RateLimit-Reset, X-Concurrency-InFlight).

package admission

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }
