package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// TxSigner is a wallet.Signer that can sign go-ethereum transactions.
type TxSigner interface {
	wallet.Signer
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs with a local ECDSA key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySignerFromHex parses a hex private key, with or without 0x.
func NewKeySignerFromHex(s string) (*KeySigner, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if h == "" {
		return nil, errors.New("empty private key")
	}
	key, err := gethcrypto.HexToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, addr: gethcrypto.PubkeyToAddress(key.PublicKey)}
}

func (s *KeySigner) Address() string { return s.addr.Hex() }

// SignTx signs with the latest signer for chainID.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// SignMessage returns a personal_sign signature over msg: 65 bytes, V is 27
// or 28.
func (s *KeySigner) SignMessage(msg []byte) ([]byte, error) {
	sig, err := gethcrypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[gethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverMessageSigner returns the address that produced sig over msg with
// SignMessage.
func RecoverMessageSigner(msg, sig []byte) (string, error) {
	if len(sig) != gethcrypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", gethcrypto.SignatureLength, len(sig))
	}
	rs := make([]byte, len(sig))
	copy(rs, sig)
	if rs[gethcrypto.RecoveryIDOffset] >= 27 {
		rs[gethcrypto.RecoveryIDOffset] -= 27
	}
	pub, err := gethcrypto.SigToPub(accounts.TextHash(msg), rs)
	if err != nil {
		return "", fmt.Errorf("recover signer: %w", err)
	}
	return gethcrypto.PubkeyToAddress(*pub).Hex(), nil
}

// buildDynamicTx builds an EIP-1559 transaction.
func buildDynamicTx(chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, tip, feeCap *big.Int, data []byte) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		Gas:       gasLimit,
		GasTipCap: new(big.Int).Set(tip),
		GasFeeCap: new(big.Int).Set(feeCap),
		To:        to,
		Value:     new(big.Int).Set(value),
		Data:      data,
	})
}

// Submit signs the plan with signer and broadcasts it. Missing gas limit or
// fee caps are filled from the node: tip = suggested priority fee,
// feeCap = 2*baseFee + tip.
func (c *Client) Submit(ctx context.Context, plan wallet.TransferPlan, signer wallet.Signer) (string, error) {
	ts, ok := signer.(TxSigner)
	if !ok {
		return "", fmt.Errorf("signer %T cannot sign transactions", signer)
	}
	from, err := ParseAddress(ts.Address())
	if err != nil {
		return "", err
	}
	if plan.From != "" && !strings.EqualFold(plan.From, from.Hex()) {
		return "", fmt.Errorf("plan sender %s does not match signer %s", plan.From, from.Hex())
	}
	recipient, err := ParseAddress(plan.Recipient)
	if err != nil {
		return "", err
	}
	if plan.Amount == nil || plan.Amount.Sign() <= 0 {
		return "", errors.New("amount must be > 0")
	}

	to := recipient
	value := new(big.Int).Set(plan.Amount)
	var data []byte
	if plan.IsToken() {
		token, err := ParseAddress(plan.Token)
		if err != nil {
			return "", err
		}
		if data, err = EncodeERC20Transfer(recipient, plan.Amount); err != nil {
			return "", err
		}
		to, value = token, new(big.Int)
	}

	tip, feeCap := plan.TipCap, plan.FeeCap
	if tip == nil || feeCap == nil {
		fees, err := c.FeeData(ctx)
		if err != nil {
			return "", err
		}
		if tip == nil {
			tip = fees.Priority
		}
		if feeCap == nil {
			feeCap = new(big.Int).Mul(fees.Base, big.NewInt(2))
			feeCap.Add(feeCap, tip)
		}
	}
	if tip.Cmp(feeCap) > 0 {
		tip = feeCap
	}

	gasLimit := plan.GasLimit
	if gasLimit == 0 {
		if gasLimit, err = c.EstimateGas(ctx, wallet.TxSkeleton{From: from.Hex(), To: to.Hex(), Value: value, Data: data}); err != nil {
			return "", err
		}
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("nonce(%s): %w", from.Hex(), err)
	}

	tx := buildDynamicTx(chainID, nonce, &to, value, gasLimit, tip, feeCap, data)
	signed, err := ts.SignTx(tx, chainID)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	c.log.Info().
		Str("hash", signed.Hash().Hex()).
		Str("from", from.Hex()).
		Str("to", to.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gasLimit).
		Str("feeCap", feeCap.String()).
		Msg("transaction sent")
	return signed.Hash().Hex(), nil
}
