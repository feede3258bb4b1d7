// internal/program/errors.go
package program

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedInstruction is returned for a method the builder does not know.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	// ErrInvalidAmount is returned for non-positive or unrepresentable amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidArgument is returned for malformed non-amount arguments.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPreconditionFailed is the base of every PreconditionError.
	ErrPreconditionFailed = errors.New("precondition failed")
)

// PreconditionReason separates accounts that will exist later from accounts
// the client has no way to locate.
type PreconditionReason string

const (
	NotYetCreated PreconditionReason = "not yet created"
	CannotInfer   PreconditionReason = "does not exist and cannot be inferred"
)

// PreconditionError reports a required account that is missing.
type PreconditionError struct {
	Account string
	Reason  PreconditionReason
	Hint    string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("precondition failed: %s %s", e.Account, e.Reason)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionFailed
}

// ProgramError is one entry of an on-chain program's custom error table.
type ProgramError struct {
	Code    int
	Name    string
	Message string
}

func (e ProgramError) String() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

func errorTable(entries ...ProgramError) map[int]ProgramError {
	m := make(map[int]ProgramError, len(entries))
	for _, e := range entries {
		m[e.Code] = e
	}
	return m
}

var presaleErrors = errorTable(
	ProgramError{6000, "PresaleNotActive", "Presale is not currently active"},
	ProgramError{6001, "PresaleNotStarted", "Presale has not started yet"},
	ProgramError{6002, "PresaleEnded", "Presale has already ended"},
	ProgramError{6003, "InvalidPriceTier", "Invalid price tier for current time"},
	ProgramError{6004, "HardCapExceeded", "Hard cap would be exceeded"},
	ProgramError{6005, "PresaleStillActive", "Presale is still active, cannot finalize"},
	ProgramError{6006, "Unauthorized", "Unauthorized access"},
	ProgramError{6007, "PresaleNotFinalized", "Presale not finalized yet"},
	ProgramError{6008, "AlreadyTransferred", "Already transferred to vesting"},
	ProgramError{6009, "NothingToTransfer", "Nothing to transfer"},
	ProgramError{6010, "InvalidClaimTime", "Invalid claim time"},
	ProgramError{6011, "NoRewardsToClaim", "No rewards to claim"},
	ProgramError{6012, "NotStaking", "User is not currently staking"},
	ProgramError{6013, "AlreadyStaking", "User is already staking"},
	ProgramError{6014, "InsufficientUnstakedTokens", "Insufficient unstaked tokens"},
	ProgramError{6015, "InsufficientStakedTokens", "Insufficient staked tokens"},
	ProgramError{6016, "ZeroStakeAmount", "Cannot stake zero amount"},
	ProgramError{6017, "OptionalStakingDisabled", "Optional staking is disabled"},
	ProgramError{6018, "PurchaseTooSmall", "Purchase amount too small"},
	ProgramError{6019, "WalletLimitExceeded", "Purchase would exceed wallet limit"},
	ProgramError{6020, "MaxPurchasesReached", "Maximum purchases per wallet reached"},
	ProgramError{6021, "FeeCollectionFailed", "Fee collection failed"},
	ProgramError{6022, "FundDistributionFailed", "Fund distribution failed"},
	ProgramError{6023, "MathOverflow", "Math overflow"},
	ProgramError{6024, "DivisionByZero", "Division by zero"},
	ProgramError{6025, "TokenMintMismatch", "Token mint mismatch"},
	ProgramError{6026, "InvalidTokenAccount", "Invalid token account"},
	ProgramError{6027, "CharityDistributionFailed", "Charity distribution failed"},
	ProgramError{6028, "InvalidCharityRate", "Invalid charity rate"},
	ProgramError{6029, "InvalidFeeRate", "Invalid fee rate"},
	ProgramError{6030, "InvalidApyRate", "Invalid APY rate"},
	ProgramError{6031, "InvalidPriceSchedule", "Invalid price schedule"},
	ProgramError{6032, "PriceScheduleTooLong", "Price schedule too long"},
	ProgramError{6033, "InvalidTimeRange", "Invalid time range"},
	ProgramError{6034, "StartTimeInPast", "Start time in the past"},
	ProgramError{6035, "EndTimeBeforeStart", "End time before start time"},
)

var vestingErrors = errorTable(
	ProgramError{6000, "InvalidTotal", "Invalid total amount"},
	ProgramError{6001, "InvalidListingTime", "Invalid listing time"},
	ProgramError{6002, "NoTokensToClaim", "No tokens to claim"},
	ProgramError{6003, "Overflow", "Overflow occurred"},
	ProgramError{6004, "AlreadyCancelled", "Vesting already cancelled"},
	ProgramError{6005, "Unauthorized", "Unauthorized access"},
	ProgramError{6006, "InvalidMint", "Invalid mint"},
	ProgramError{6007, "InvalidTokenAccount", "Invalid token account"},
	ProgramError{6008, "VestingNotActive", "Vesting not active"},
	ProgramError{6009, "NoPendingUpgrade", "No pending upgrade"},
	ProgramError{6010, "UpgradeDelayNotPassed", "Upgrade delay not passed"},
	ProgramError{6011, "InvalidUpgradeAuthority", "Invalid upgrade authority"},
	ProgramError{6012, "UpgradeAlreadyPending", "Upgrade already pending"},
)

var stakingErrors = errorTable(
	ProgramError{6000, "InvalidApy", "Invalid APY"},
	ProgramError{6001, "InvalidSlotsPerYear", "Invalid slots per year"},
	ProgramError{6002, "InvalidGlobalCap", "Invalid global cap"},
	ProgramError{6003, "InvalidAmount", "Invalid amount"},
	ProgramError{6004, "GlobalCapExceeded", "Global cap exceeded"},
	ProgramError{6005, "InsufficientStake", "Insufficient stake"},
	ProgramError{6006, "NoRewardsToClaim", "No rewards to claim"},
	ProgramError{6007, "Overflow", "Overflow occurred"},
	ProgramError{6008, "InvalidSlotCalculation", "Invalid slot calculation"},
	ProgramError{6009, "Unauthorized", "Unauthorized access"},
	ProgramError{6010, "InvalidMint", "Invalid mint"},
	ProgramError{6011, "InvalidTokenAccount", "Invalid token account"},
	ProgramError{6012, "PoolNotInitialized", "Pool not initialized"},
)

// LookupError resolves a custom error code raised by one of the programs.
func LookupError(target Target, code int) (ProgramError, bool) {
	var table map[int]ProgramError
	switch target {
	case TargetPresale:
		table = presaleErrors
	case TargetVesting:
		table = vestingErrors
	case TargetStaking:
		table = stakingErrors
	}
	e, ok := table[code]
	return e, ok
}
