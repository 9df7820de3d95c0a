// Package payload compresses structured notification payloads for storage
// and transport. Small payloads pass through untouched: below the threshold
// the gzip overhead costs more than it saves, so the result reports method
// "none" with identical sizes and ratio 1.0. Incompressible data that would
// grow under gzip also falls back to "none".
package payload
