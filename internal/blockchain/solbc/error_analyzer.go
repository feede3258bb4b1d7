package solbc

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/program"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code      int    `json:"code"`
	Name      string `json:"name"`
	Msg       string `json:"msg"`
	ProgramID string `json:"programId,omitempty"`
}

// ProgramFailure is a custom program error found in transaction logs or in
// the transaction error itself, resolved against the known error tables.
type ProgramFailure struct {
	ProgramID solana.PublicKey
	Code      int
	Name      string
	Message   string
	Known     bool
}

func (f ProgramFailure) Error() string {
	if f.Name == "" {
		return fmt.Sprintf("custom program error %d", f.Code)
	}
	return fmt.Sprintf("%s (%d): %s", f.Name, f.Code, f.Message)
}

var (
	programFailedRe = regexp.MustCompile(`Program (\w+) failed: custom program error: 0x([0-9a-fA-F]+)`)
	programInvokeRe = regexp.MustCompile(`Program (\w+) invoke \[\d+\]`)
)

// ErrorAnalyzer provides methods to analyze Solana transaction errors
type ErrorAnalyzer struct {
	programs program.Programs
	logger   *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(programs program.Programs, logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		programs: programs,
		logger:   logger.Named("error-analyzer"),
	}
}

// Analyze looks for a custom program error, first in the logs and then in
// the raw transaction error. ok is false when neither carries one.
func (ea *ErrorAnalyzer) Analyze(logs []string, txErr interface{}) (ProgramFailure, bool) {
	var failure ProgramFailure
	found := false
	var lastInvoked string

	for _, line := range logs {
		if m := programInvokeRe.FindStringSubmatch(line); m != nil {
			lastInvoked = m[1]
		}
		if strings.Contains(line, "AnchorError") {
			ae := ea.parseAnchorErrorLog(line)
			if ae.Code != 0 {
				failure.Code, failure.Name, failure.Message = ae.Code, ae.Name, ae.Msg
				found = true
			}
		}
		if m := programFailedRe.FindStringSubmatch(line); m != nil {
			code, err := strconv.ParseInt(m[2], 16, 64)
			if err != nil {
				continue
			}
			if pk, err := solana.PublicKeyFromBase58(m[1]); err == nil {
				failure.ProgramID = pk
			}
			failure.Code = int(code)
			found = true
		}
	}
	if !found {
		code, ok := customCodeFromTxErr(txErr)
		if !ok {
			return ProgramFailure{}, false
		}
		failure.Code = code
		if lastInvoked != "" {
			if pk, err := solana.PublicKeyFromBase58(lastInvoked); err == nil {
				failure.ProgramID = pk
			}
		}
	}

	ea.resolve(&failure)
	ea.logger.Debug("Program error detected",
		zap.Int("code", failure.Code),
		zap.String("name", failure.Name),
		zap.Bool("known", failure.Known))
	return failure, true
}

func (ea *ErrorAnalyzer) resolve(f *ProgramFailure) {
	targets := []program.Target{program.TargetPresale, program.TargetVesting}
	if t, ok := ea.programs.TargetOf(f.ProgramID); ok {
		targets = []program.Target{t}
	}
	for _, t := range targets {
		if known, ok := program.LookupError(t, f.Code); ok {
			if f.Name == "" || f.Name == known.Name {
				f.Name, f.Message, f.Known = known.Name, known.Message, true
				return
			}
		}
	}
}

// customCodeFromTxErr extracts N from {"InstructionError":[idx,{"Custom":N}]}.
func customCodeFromTxErr(txErr interface{}) (int, bool) {
	m, ok := txErr.(map[string]interface{})
	if !ok {
		return 0, false
	}
	pair, ok := m["InstructionError"].([]interface{})
	if !ok || len(pair) != 2 {
		return 0, false
	}
	inner, ok := pair[1].(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch v := inner["Custom"].(type) {
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// SimulationLogs extracts preflight logs from a send error, if the node
// attached any.
func SimulationLogs(err error) ([]string, interface{}, bool) {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Data == nil {
		return nil, nil, false
	}
	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil, nil, false
	}
	raw, _ := dataMap["logs"].([]interface{})
	logs := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			logs = append(logs, s)
		}
	}
	return logs, dataMap["err"], true
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported."
func (ea *ErrorAnalyzer) parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if strings.Contains(logStr, "Error Number:") {
		parts := strings.Split(logStr, "Error Number:")
		numParts := strings.Split(parts[1], ".")
		if n, err := strconv.Atoi(strings.TrimSpace(numParts[0])); err == nil {
			result.Code = n
		}
	}

	if strings.Contains(logStr, "Error Code:") {
		parts := strings.Split(logStr, "Error Code:")
		nameParts := strings.Split(parts[1], ".")
		result.Name = strings.TrimSpace(nameParts[0])
	}

	if strings.Contains(logStr, "Error Message:") {
		parts := strings.Split(logStr, "Error Message:")
		result.Msg = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
	}

	return result
}
