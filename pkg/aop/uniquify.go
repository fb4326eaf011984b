// pkg/aop/uniquify.go
package aop

import (
	"fmt"

	"go.uber.org/atomic"
)

// uniquifyCounter backs Uniquify's monotonic suffix, shared process-wide so
// that no two suffixed names are ever the same, per spec.md §3's "Proxy
// Type Registry" invariant. Names a Generator sees for the first time are
// not passed through Uniquify, so two separate generators can each publish
// the same unsuffixed name.
var uniquifyCounter atomic.Int64

// Uniquify appends a monotonically increasing numeric suffix to base. It is
// meant to be called only once a caller has already detected an actual
// simple-name collision (e.g. two distinct target types sharing the same
// short name) — spec.md §3 disambiguates "name collisions across classes
// with the same simple name", not every name unconditionally.
func Uniquify(base string) string {
	n := uniquifyCounter.Inc()
	return fmt.Sprintf("%s#%d", base, n)
}
