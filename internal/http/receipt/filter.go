package receipt

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const defaultLimit = 100

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly}

type listQuery struct {
	filter receipt.ListFilter
	limit  int
	offset int
}

// parseListQuery reads total__gt, total__lt, type, created_at__gt,
// created_at__lt, limit and offset.
func parseListQuery(q url.Values) (listQuery, error) {
	lq := listQuery{limit: defaultLimit}

	for _, f := range []struct {
		key string
		dst **decimal.Decimal
	}{
		{"total__gt", &lq.filter.TotalGT},
		{"total__lt", &lq.filter.TotalLT},
	} {
		if s := q.Get(f.key); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return lq, fmt.Errorf("%s: invalid decimal %q", f.key, s)
			}

			*f.dst = &d
		}
	}

	if s := q.Get("type"); s != "" {
		t := receipt.PaymentType(s)
		if !t.Valid() {
			return lq, fmt.Errorf("type: must be %q or %q", receipt.PaymentCash, receipt.PaymentCashless)
		}

		lq.filter.Type = &t
	}

	for _, f := range []struct {
		key string
		dst **time.Time
	}{
		{"created_at__gt", &lq.filter.CreatedAtGT},
		{"created_at__lt", &lq.filter.CreatedAtLT},
	} {
		if s := q.Get(f.key); s != "" {
			t, err := parseTime(s)
			if err != nil {
				return lq, fmt.Errorf("%s: invalid datetime %q", f.key, s)
			}

			*f.dst = &t
		}
	}

	var err error

	if lq.limit, err = nonNegative(q, "limit", defaultLimit); err != nil {
		return lq, err
	}

	if lq.offset, err = nonNegative(q, "offset", 0); err != nil {
		return lq, err
	}

	return lq, nil
}

// parseTime accepts RFC 3339 and zone-less ISO forms, the latter as UTC.
func parseTime(s string) (time.Time, error) {
	var lastErr error

	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}

		lastErr = err
	}

	return time.Time{}, lastErr
}

func nonNegative(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: must be a non-negative integer", key)
	}

	return n, nil
}
