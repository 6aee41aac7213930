package workorder

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

var orderNumberPattern = regexp.MustCompile(`^RN-\d{8}-\d{3}$`)

// GenerateOrderNumber returns "RN-{yyyyMMdd}-{NNN}". intn picks the random
// suffix; nil uses math/rand. Uniqueness is enforced by the database, not here.
func GenerateOrderNumber(now time.Time, intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	return fmt.Sprintf("RN-%s-%03d", now.Format("20060102"), intn(1000))
}

// IsOrderNumber reports whether s has the generated order-number shape.
func IsOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
