package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tair/warehouse-erp/pkg/apperr"
)

// MaxDailySequence is the highest sequence an order number can carry
const MaxDailySequence = 9999

const numberPrefix = "ORD-"

// DayKey is the YYYYMMDD date an order number is scoped to
func DayKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

// NumberPrefix is the common prefix of all order numbers of day
func NumberPrefix(day string) string {
	return numberPrefix + day + "-"
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNNN
func FormatOrderNumber(day string, seq int64) (string, error) {
	if seq < 1 || seq > MaxDailySequence {
		return "", apperr.Internal(fmt.Errorf("order sequence %d for %s is out of range", seq, day))
	}
	return fmt.Sprintf("%s%04d", NumberPrefix(day), seq), nil
}

// ParseSequence extracts the sequence of an order number issued on day
func ParseSequence(number, day string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, NumberPrefix(day))
	if !ok || len(rest) != 4 {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
