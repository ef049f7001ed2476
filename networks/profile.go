package networks

import (
	"errors"
	"fmt"

	"github.com/tranvictor/saddle/source"
)

// Parameter names, in the order they are reported.
const (
	ParamProvider = "provider"
	ParamAccounts = "accounts"
	ParamGas      = "gas"
	ParamGasPrice = "gas_price"
)

var Parameters = []string{ParamProvider, ParamAccounts, ParamGas, ParamGasPrice}

var (
	ErrEmptyParameterList = errors.New("parameter has no sources")
	ErrInvalidProfile     = errors.New("invalid profile")
)

// Profile declares, for one environment, where each runtime parameter may be
// read from. Options are handed to the transaction client verbatim.
type Profile struct {
	Name             string         `json:"name"`
	AlternativeNames []string       `json:"alternative_names,omitempty"`
	Providers        source.List    `json:"providers"`
	Accounts         source.List    `json:"accounts"`
	Gas              source.List    `json:"gas"`
	GasPrice         source.List    `json:"gas_price"`
	Options          map[string]any `json:"options,omitempty"`
}

// List returns the fallback chain for a parameter name.
func (p Profile) List(parameter string) source.List {
	switch parameter {
	case ParamProvider:
		return p.Providers
	case ParamAccounts:
		return p.Accounts
	case ParamGas:
		return p.Gas
	case ParamGasPrice:
		return p.GasPrice
	}
	return nil
}

// Validate reports profile problems that would otherwise only show up at
// resolution time.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProfile)
	}
	for _, param := range Parameters {
		if len(p.List(param)) == 0 {
			return fmt.Errorf("profile %q: %s: %w", p.Name, param, ErrEmptyParameterList)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate the registry.
func (p Profile) Clone() Profile {
	out := Profile{
		Name:      p.Name,
		Providers: p.Providers.Clone(),
		Accounts:  p.Accounts.Clone(),
		Gas:       p.Gas.Clone(),
		GasPrice:  p.GasPrice.Clone(),
		Options:   cloneOptions(p.Options),
	}
	if len(p.AlternativeNames) > 0 {
		out.AlternativeNames = append([]string(nil), p.AlternativeNames...)
	}
	return out
}

func cloneOptions(options map[string]any) map[string]any {
	if options == nil {
		return nil
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneOptions(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
