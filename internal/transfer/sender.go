package transfer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ligun0805/crossapp-wallet/internal/metrics"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// Sender hands plans to the submission collaborator.
type Sender struct {
	submitter wallet.Submitter
	log       zerolog.Logger
}

func NewSender(s wallet.Submitter, log zerolog.Logger) *Sender {
	return &Sender{submitter: s, log: log}
}

// Send submits plan. Any collaborator failure is returned as
// wallet.ErrSubmissionRejected with the original error still reachable
// through errors.Is / errors.As.
func (s *Sender) Send(ctx context.Context, plan wallet.TransferPlan, signer wallet.Signer) (string, error) {
	kind := "native"
	if plan.IsToken() {
		kind = "token"
	}
	hash, err := s.submitter.Submit(ctx, plan, signer)
	if err != nil {
		metrics.RecordSubmission(kind, "rejected")
		s.log.Error().Err(err).Str("kind", kind).Str("recipient", plan.Recipient).Msg("transfer rejected")
		return "", fmt.Errorf("%w: %w", wallet.ErrSubmissionRejected, err)
	}
	metrics.RecordSubmission(kind, "ok")
	s.log.Info().Str("kind", kind).Str("hash", hash).Str("recipient", plan.Recipient).Str("amount", plan.Amount.String()).Msg("transfer submitted")
	return hash, nil
}
