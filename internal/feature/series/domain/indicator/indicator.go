// Package indicator computes technical indicators over close-price series.
//
// Every function is pure and operates on whole series, returning one value
// per input index so results line up with the bars they were derived from.
package indicator

import (
	"errors"
	"fmt"
)

const (
	DefaultRSIPeriod  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid indicator parameters")

// Params configures the daily indicator set.
type Params struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultParams returns RSI(14) and MACD(12, 26, 9).
func DefaultParams() Params {
	return Params{
		RSIPeriod:  DefaultRSIPeriod,
		MACDFast:   DefaultMACDFast,
		MACDSlow:   DefaultMACDSlow,
		MACDSignal: DefaultMACDSignal,
	}
}

// Validate checks that every period is positive.
func (p Params) Validate() error {
	switch {
	case p.RSIPeriod < 1:
		return fmt.Errorf("%w: rsi period %d", ErrInvalidParams, p.RSIPeriod)
	case p.MACDFast < 1 || p.MACDSlow < 1 || p.MACDSignal < 1:
		return fmt.Errorf("%w: macd periods %d/%d/%d", ErrInvalidParams, p.MACDFast, p.MACDSlow, p.MACDSignal)
	}
	return nil
}
