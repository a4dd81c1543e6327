// Package params groups the per-network defaults a share-chain node
// needs at startup: which wire magic to speak, its default TCP port,
// and the seed peers to dial when none are configured. Modeled on
// the teacher's params.go (itself a *core.Params wrapper selected by
// an activeNetParams pointer), generalized to this protocol's own
// magic values rather than importing chaincfg.Params directly — that
// type carries Bitcoin-mainnet-specific fields (genesis block, BIP9
// deployments, checkpoints) this module has no use for.
package params

import "github.com/p2pool-go/sharechain/wire"

// Network identifies one of the predefined parameter sets.
type Network string

const (
	MainNet Network = "mainnet"
	TestNet Network = "testnet"
)

// Params bundles the network-specific constants a node needs. The
// share-chain window lengths (BASE_CHAIN_LENGTH / MAX_CHAIN_LENGTH)
// are not here: they are protocol invariants fixed in sharechain, not
// a per-network choice.
type Params struct {
	Name         Network
	Magic        wire.Magic
	DefaultPort  string
	DefaultSeeds []string
}

// MainNetParams is the production network.
var MainNetParams = Params{
	Name:        MainNet,
	Magic:       wire.MainNetMagic,
	DefaultPort: "9347",
}

// TestNetParams is the test network.
var TestNetParams = Params{
	Name:         TestNet,
	Magic:        wire.TestNetMagic,
	DefaultPort:  "19347",
	DefaultSeeds: []string{"127.0.0.1:19347"},
}

// ByName resolves one of the predefined networks by name, as read
// from config. Returns false if name is not recognized.
func ByName(name string) (Params, bool) {
	switch Network(name) {
	case MainNet:
		return MainNetParams, true
	case TestNet:
		return TestNetParams, true
	default:
		return Params{}, false
	}
}
