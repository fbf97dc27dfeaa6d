package ports

import "markup-backend/domain/markup"

// Symbol is a named, origin-normalized group of markups. Its items
// carry no id, filename or page; placement re-instantiates them with
// fresh identities.
type Symbol struct {
	Name   string           `json:"name"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Items  []*markup.Markup `json:"items"`
}

// SymbolStore is the durable key-value persistence for the symbol
// library and the default signature name. Corrupt or missing entries
// degrade to empty values rather than failing.
type SymbolStore interface {
	LoadSymbols() ([]*Symbol, error)
	SaveSymbols(symbols []*Symbol) error
	LoadDefaultSignature() (string, error)
	SaveDefaultSignature(name string) error
}
