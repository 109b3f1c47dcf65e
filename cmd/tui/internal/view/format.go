package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const requestTimeout = 5 * time.Second

// FormatMoney renders a decimal amount with two places and a dollar sign.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ReqCtx returns a context with the standard timeout for remote calls.
func ReqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
