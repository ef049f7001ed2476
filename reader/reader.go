// Package reader queries Ethereum JSON-RPC nodes for the little runtime
// information resolution needs: unlocked accounts and liveness.
package reader

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// RPCAccounts lists unlocked accounts by dialing the endpoint for every
// call. Results are never cached: a later resolution must see the node's
// current state.
type RPCAccounts struct{}

func (RPCAccounts) Accounts(ctx context.Context, endpoint string) ([]common.Address, error) {
	r := NewOneNodeReader(endpoint)
	defer r.Close()
	return r.Accounts(ctx)
}

// Ping reports whether endpoint answers eth_chainId.
func Ping(ctx context.Context, endpoint string) error {
	r := NewOneNodeReader(endpoint)
	defer r.Close()
	_, err := r.ChainID(ctx)
	return err
}
