// internal/domain/wallet.go
package domain

import (
	"sort"
	"time"
)

// WalletAddresses maps a currency/network code (e.g. "TRC20") to the address
// users send deposits to.
type WalletAddresses struct {
	Addresses map[string]string `json:"addresses"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Currencies returns the configured codes in sorted order.
func (w *WalletAddresses) Currencies() []string {
	out := make([]string, 0, len(w.Addresses))
	for code := range w.Addresses {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Accepts reports whether deposits in currency are configured.
// An empty configuration accepts any currency.
func (w *WalletAddresses) Accepts(currency string) bool {
	if w == nil || len(w.Addresses) == 0 {
		return true
	}
	_, ok := w.Addresses[currency]
	return ok
}
