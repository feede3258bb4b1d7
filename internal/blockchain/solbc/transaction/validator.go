// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// MaxTransactionSize is the packet limit for a serialized transaction.
const MaxTransactionSize = 1232

// Validator rejects transactions the cluster would refuse anyway, before the
// user is asked to sign them.
type Validator struct {
	logger  *zap.Logger
	allowed map[solana.PublicKey]struct{}
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger.Named("tx-validator")}
}

// Allow restricts instructions to the given programs. With no call every
// program is accepted.
func (v *Validator) Allow(programs ...solana.PublicKey) {
	if v.allowed == nil {
		v.allowed = make(map[solana.PublicKey]struct{}, len(programs))
	}
	for _, p := range programs {
		v.allowed[p] = struct{}{}
	}
}

// CheckBuilt runs before simulation, on the unsigned transaction.
func (v *Validator) CheckBuilt(tx *solana.Transaction, payer solana.PublicKey) error {
	msg := &tx.Message
	if msg.RecentBlockhash.IsZero() {
		return ErrInvalidBlockhash
	}
	if len(msg.AccountKeys) == 0 || !msg.AccountKeys[0].Equals(payer) {
		return fmt.Errorf("%w: fee payer is not %s", ErrInvalidInstruction, payer)
	}
	if err := v.checkPrograms(msg); err != nil {
		return err
	}
	return v.checkSize(msg)
}

// CheckSigned runs after the wallet signed and before submission.
func (v *Validator) CheckSigned(tx *solana.Transaction) error {
	need := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != need {
		return fmt.Errorf("%w: have %d signatures, need %d", ErrInvalidSignature, len(tx.Signatures), need)
	}
	for i, sig := range tx.Signatures {
		if sig.IsZero() {
			return fmt.Errorf("%w: signature %d is empty", ErrInvalidSignature, i)
		}
	}
	if err := tx.VerifySignatures(); err != nil {
		v.logger.Debug("Signature verification failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if tx.Message.RecentBlockhash.IsZero() {
		return ErrInvalidBlockhash
	}
	return nil
}

func (v *Validator) checkPrograms(msg *solana.Message) error {
	if len(msg.Instructions) == 0 {
		return ErrInvalidInstruction
	}
	for i, ix := range msg.Instructions {
		idx := int(ix.ProgramIDIndex)
		if idx >= len(msg.AccountKeys) {
			return fmt.Errorf("%w: instruction %d has program index %d out of range", ErrInvalidInstruction, i, idx)
		}
		if v.allowed == nil {
			continue
		}
		if _, ok := v.allowed[msg.AccountKeys[idx]]; !ok {
			return fmt.Errorf("%w: instruction %d calls unexpected program %s", ErrInvalidInstruction, i, msg.AccountKeys[idx])
		}
	}
	return nil
}

// checkSize counts the signature section the wallet will fill in.
func (v *Validator) checkSize(msg *solana.Message) error {
	raw, err := msg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", ErrInvalidInstruction, err)
	}
	size := 1 + 64*int(msg.Header.NumRequiredSignatures) + len(raw)
	if size > MaxTransactionSize {
		return fmt.Errorf("%w: transaction is %d bytes, limit %d", ErrInvalidInstruction, size, MaxTransactionSize)
	}
	return nil
}
