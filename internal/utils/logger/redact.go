// internal/utils/logger/redact.go
package logger

import (
	"fmt"
	"regexp"

	"go.uber.org/zap/zapcore"
)

var (
	providerURLRe = regexp.MustCompile(`(?i)(https?|wss?)://(?:[a-z0-9-]+\.)*((?:helius-rpc|quiknode|alchemy|ankr|triton|rpcpool|chainstack|syndica)\.[a-z.]+)[^\s"',]*`)
	queryKeyRe    = regexp.MustCompile(`(?i)\b((?:api-key|api_key|apikey|key|token)=)[^&\s"',:]+`)
	secretRe      = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{87,88}\b`)
)

// Signatures have the same base58 length as secret keys, so fields that are
// known to hold them are left readable.
var unredactedKeys = map[string]bool{
	"signature": true,
	"tx_hash":   true,
}

// Redact masks RPC API keys, provider RPC URLs and base58 secret keys.
func Redact(s string) string {
	s = providerURLRe.ReplaceAllString(s, "$1://***.$2")
	s = queryKeyRe.ReplaceAllString(s, "${1}***")
	return secretRe.ReplaceAllString(s, "[REDACTED]")
}

type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so messages and string-like fields pass
// through Redact.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = Redact(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

func redactField(f zapcore.Field) zapcore.Field {
	if unredactedKeys[f.Key] {
		return f
	}
	switch f.Type {
	case zapcore.StringType:
		f.String = Redact(f.String)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok && err != nil {
			return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: Redact(err.Error())}
		}
	case zapcore.StringerType:
		if s, ok := f.Interface.(fmt.Stringer); ok {
			return zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: Redact(s.String())}
		}
	}
	return f
}
