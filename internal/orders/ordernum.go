package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order numbers look like 150126-0042: date prefix DDMMYY, then a 4-digit
// daily counter. The counter wraps back to 1 after 9999; past that the unique
// index on order_number decides.

const orderNumberMax = 9999

func DatePrefix(t time.Time) string {
	return t.Format("020106")
}

// NextOrderNumber derives the next number for prefix given the highest
// existing number for that day ("" when the day has no orders yet).
func NextOrderNumber(prefix, last string) (string, error) {
	counter := 1
	if last != "" {
		_, seq, ok := strings.Cut(last, "-")
		if !ok {
			return "", fmt.Errorf("malformed order number %q", last)
		}
		n, err := strconv.Atoi(seq)
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", last, err)
		}
		counter = n + 1
		if counter > orderNumberMax {
			counter = 1
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, counter), nil
}
