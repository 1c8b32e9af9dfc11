package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

type fakeSubmitter struct {
	hash string
	err  error
	got  []wallet.TransferPlan
}

func (f *fakeSubmitter) Submit(_ context.Context, plan wallet.TransferPlan, _ wallet.Signer) (string, error) {
	f.got = append(f.got, plan)
	return f.hash, f.err
}

type addrSigner string

func (s addrSigner) Address() string { return string(s) }

func TestSender_Send(t *testing.T) {
	sub := &fakeSubmitter{hash: "0xabc"}
	s := NewSender(sub, zerolog.Nop())
	plan := wallet.TransferPlan{From: alice, Recipient: bob, Amount: big.NewInt(1)}

	hash, err := s.Send(context.Background(), plan, addrSigner(alice))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	require.Len(t, sub.got, 1)
	assert.Equal(t, bob, sub.got[0].Recipient)
}

func TestSender_SendWrapsRejection(t *testing.T) {
	cause := errors.New("user rejected the request")
	s := NewSender(&fakeSubmitter{err: cause}, zerolog.Nop())

	_, err := s.Send(context.Background(), wallet.TransferPlan{Amount: big.NewInt(1), Token: token}, addrSigner(alice))
	require.ErrorIs(t, err, wallet.ErrSubmissionRejected)
	assert.ErrorIs(t, err, cause)
}
