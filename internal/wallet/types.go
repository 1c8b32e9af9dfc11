package wallet

import (
	"context"
	"math/big"
	"time"
)

// Account is an address on the target network. It does not hold funds itself;
// the network tracks balances and the account is only the lookup key.
type Account string

func (a Account) String() string { return string(a) }

// BalanceSnapshot is the result of one balance read. Snapshots are never
// mutated; the next poll produces a new one.
type BalanceSnapshot struct {
	Account    Account
	native     *big.Int
	token      *big.Int
	ObservedAt time.Time
}

// NewSnapshot copies the amounts so later changes by the caller do not leak in.
// A nil amount is stored as zero.
func NewSnapshot(account Account, native, token *big.Int, at time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		Account:    account,
		native:     copyOrZero(native),
		token:      copyOrZero(token),
		ObservedAt: at,
	}
}

// Native returns the native balance in base units.
func (s BalanceSnapshot) Native() *big.Int { return copyOrZero(s.native) }

// Token returns the token balance in the token's base units.
func (s BalanceSnapshot) Token() *big.Int { return copyOrZero(s.token) }

// FeeData is the current per-gas fee split into its base and priority parts.
type FeeData struct {
	Base     *big.Int
	Priority *big.Int
}

// Complete reports whether both components are present.
func (f FeeData) Complete() bool { return f.Base != nil && f.Priority != nil }

// Total returns Base + Priority. Callers must check Complete first.
func (f FeeData) Total() *big.Int { return new(big.Int).Add(f.Base, f.Priority) }

// FeeEstimate pairs a gas estimate with the fee per unit it will be paid at.
// It is built fresh for each calculation and must not be reused.
type FeeEstimate struct {
	GasUnits  uint64
	FeePerGas *big.Int
}

// AdjustedGas inflates GasUnits by marginPct percent (120 => +20%),
// truncating toward zero.
func (e FeeEstimate) AdjustedGas(marginPct uint64) *big.Int {
	g := new(big.Int).SetUint64(e.GasUnits)
	g.Mul(g, new(big.Int).SetUint64(marginPct))
	return g.Quo(g, big.NewInt(100))
}

// Cost returns AdjustedGas(marginPct) * FeePerGas.
func (e FeeEstimate) Cost(marginPct uint64) *big.Int {
	return new(big.Int).Mul(e.AdjustedGas(marginPct), e.FeePerGas)
}

// TxSkeleton is the unsigned shape handed to gas estimation.
type TxSkeleton struct {
	From  string
	To    string
	Value *big.Int
	Data  []byte
}

// TransferPlan is built right before submission and never persisted.
// An empty Token means a native-asset transfer of Amount to Recipient;
// otherwise Amount is in token base units and the transaction calls the
// token contract.
type TransferPlan struct {
	From      string
	Recipient string
	Amount    *big.Int
	Token     string
	GasLimit  uint64
	FeeCap    *big.Int
	TipCap    *big.Int
}

// IsToken reports whether the plan moves an ERC-20 token.
func (p TransferPlan) IsToken() bool { return p.Token != "" }

// ChainReader is the read side of the RPC collaborator.
type ChainReader interface {
	Balance(ctx context.Context, account string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account string) (*big.Int, error)
	EstimateGas(ctx context.Context, tx TxSkeleton) (uint64, error)
	FeeData(ctx context.Context) (FeeData, error)
}

// Signer identifies who authorises a submission. Implementations hold the key
// material; the submitter only asks for the address and a signature.
type Signer interface {
	Address() string
}

// Submitter hands a plan to the network and returns the transaction hash.
type Submitter interface {
	Submit(ctx context.Context, plan TransferPlan, signer Signer) (string, error)
}

func copyOrZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
