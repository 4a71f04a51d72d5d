package model

type Chain string

const ChainSolana Chain = "solana"

func (c Chain) String() string {
	return string(c)
}

type Network string

const (
	NetworkMainnet Network = "mainnet-beta"
	NetworkDevnet  Network = "devnet"
	NetworkTestnet Network = "testnet"
)

func (n Network) String() string {
	return string(n)
}

// Valid reports whether n names a known Solana cluster.
func (n Network) Valid() bool {
	switch n {
	case NetworkMainnet, NetworkDevnet, NetworkTestnet:
		return true
	}
	return false
}

// Commitment is the Solana confirmation level a status must reach.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) String() string {
	return string(c)
}

// Rank orders commitments; unknown values rank below processed.
func (c Commitment) Rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}

// Reached reports whether status c satisfies the target commitment.
func (c Commitment) Reached(target Commitment) bool {
	return c.Rank() > 0 && c.Rank() >= target.Rank()
}

// LamportsPerSOL is the base-unit conversion factor for the native coin.
const LamportsPerSOL = 1_000_000_000
