package solbc

import (
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

func newAnalyzer() *ErrorAnalyzer {
	return NewErrorAnalyzer(program.DefaultPrograms(), zap.NewNop())
}

func TestAnalyzeAnchorLog(t *testing.T) {
	logs := []string{
		"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH invoke [1]",
		"Program log: Instruction: BuyWithSolV3",
		"Program log: AnchorError thrown in programs/presale/src/lib.rs:412. Error Code: WalletLimitExceeded. Error Number: 6019. Error Message: Purchase would exceed wallet limit.",
		"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH failed: custom program error: 0x1783",
	}

	f, ok := newAnalyzer().Analyze(logs, nil)
	require.True(t, ok)
	assert.Equal(t, 6019, f.Code)
	assert.Equal(t, "WalletLimitExceeded", f.Name)
	assert.Equal(t, program.DefaultPresaleProgramID, f.ProgramID)
	assert.True(t, f.Known)
	assert.Contains(t, f.Error(), "Purchase would exceed wallet limit")
}

func TestAnalyzeVestingCodeFromTxErr(t *testing.T) {
	logs := []string{
		"Program 3EnPSZpZbKDwVetAiXo9bos4XMDvqg1yqJvew8zh4keP invoke [1]",
		"Program log: Instruction: Claim",
	}
	txErr := map[string]interface{}{
		"InstructionError": []interface{}{float64(0), map[string]interface{}{"Custom": float64(6002)}},
	}

	f, ok := newAnalyzer().Analyze(logs, txErr)
	require.True(t, ok)
	assert.Equal(t, "NoTokensToClaim", f.Name)
	assert.Equal(t, program.DefaultVestingProgramID, f.ProgramID)
}

func TestAnalyzeStakingProgramCode(t *testing.T) {
	logs := []string{
		"Program 3ZaKegZktvjwt4SreDvitLECG47UnPdd4EFzNAnyHDaW invoke [1]",
		"Program 3ZaKegZktvjwt4SreDvitLECG47UnPdd4EFzNAnyHDaW failed: custom program error: 0x1774",
	}

	f, ok := newAnalyzer().Analyze(logs, nil)
	require.True(t, ok)
	assert.Equal(t, 6004, f.Code)
	assert.Equal(t, "GlobalCapExceeded", f.Name)
	assert.Equal(t, program.DefaultStakingProgramID, f.ProgramID)
	assert.True(t, f.Known)
}

func TestAnalyzeUnknownCode(t *testing.T) {
	logs := []string{"Program HNPuLPxycypT4YtD5vMZPdcrr53MLKAajYrQwNTv4ujH failed: custom program error: 0x2710"}

	f, ok := newAnalyzer().Analyze(logs, nil)
	require.True(t, ok)
	assert.Equal(t, 10000, f.Code)
	assert.False(t, f.Known)
	assert.Equal(t, "custom program error 10000", f.Error())
}

func TestAnalyzeNoProgramError(t *testing.T) {
	_, ok := newAnalyzer().Analyze([]string{"Program log: ok"}, "AccountNotFound")
	assert.False(t, ok)
}

func TestSimulationLogs(t *testing.T) {
	err := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed: Error processing Instruction 0",
		Data: map[string]interface{}{
			"logs": []interface{}{"Program log: a", "Program log: b"},
			"err":  "InsufficientFundsForFee",
		},
	}

	logs, txErr, ok := SimulationLogs(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Program log: a", "Program log: b"}, logs)
	assert.Equal(t, "InsufficientFundsForFee", txErr)

	_, _, ok = SimulationLogs(assert.AnError)
	assert.False(t, ok)
}
