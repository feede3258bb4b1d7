// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	solbcrpc "github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/rpc"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
// Чтения идут через пул с переключением узлов, отправка транзакций
// выполняется ровно один раз.
type Client struct {
	pool       *solbcrpc.Pool
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

// NewClient создаёт клиент по списку RPC URL.
func NewClient(urls []string, timeout time.Duration, commitment rpc.CommitmentType, logger *zap.Logger) (*Client, error) {
	pool, err := solbcrpc.NewPool(urls, timeout, logger)
	if err != nil {
		return nil, err
	}
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &Client{
		pool:       pool,
		commitment: commitment,
		logger:     logger.Named("solbc-client"),
	}, nil
}

// IsAccountNotFoundError проверяет, является ли ошибка "not found"
func IsAccountNotFoundError(err error) bool {
	return errors.Is(err, blockchain.ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound)
}

// Pool exposes node health for diagnostics.
func (c *Client) Pool() *solbcrpc.Pool {
	return c.pool
}

// GetLatestBlockhash получает последний blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.pool.ExecuteWithRetry(ctx, "getLatestBlockhash", func(ctx context.Context, node *rpc.Client) error {
		res, err := node.GetLatestBlockhash(ctx, c.commitment)
		if err != nil {
			return err
		}
		hash = res.Value.Blockhash
		return nil
	})
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return hash, nil
}

// GetAccountInfo получает информацию об аккаунте.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	var result *rpc.GetAccountInfoResult
	err := c.pool.ExecuteWithRetry(ctx, "getAccountInfo", func(ctx context.Context, node *rpc.Client) error {
		var err error
		result, err = node.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && (result == nil || result.Value == nil)) {
		return nil, fmt.Errorf("%s: %w", pubkey, blockchain.ErrAccountNotFound)
	}
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetMultipleAccounts получает информацию о нескольких аккаунтах за один запрос
func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if len(pubkeys) == 0 {
		return &rpc.GetMultipleAccountsResult{}, nil
	}

	opts := rpc.GetMultipleAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	}

	var res *rpc.GetMultipleAccountsResult
	err := c.pool.ExecuteWithRetry(ctx, "getMultipleAccounts", func(ctx context.Context, node *rpc.Client) error {
		var err error
		res, err = node.GetMultipleAccountsWithOpts(ctx, pubkeys, &opts)
		return err
	})
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error", zap.Int("count", len(pubkeys)), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// GetProgramAccountsWithOpts получает все аккаунты программы с опциями фильтрации
func (c *Client) GetProgramAccountsWithOpts(
	ctx context.Context,
	programID solana.PublicKey,
	opts *rpc.GetProgramAccountsOpts,
) (rpc.GetProgramAccountsResult, error) {
	var accounts rpc.GetProgramAccountsResult
	err := c.pool.ExecuteWithRetry(ctx, "getProgramAccounts", func(ctx context.Context, node *rpc.Client) error {
		var err error
		accounts, err = node.GetProgramAccountsWithOpts(ctx, programID, opts)
		return err
	})
	if err != nil {
		c.logger.Debug("GetProgramAccountsWithOpts error",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		return nil, err
	}
	return accounts, nil
}

// SimulateTransaction симулирует транзакцию и возвращает результат симуляции.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	var out *blockchain.SimulationResult
	err := c.pool.ExecuteWithRetry(ctx, "simulateTransaction", func(ctx context.Context, node *rpc.Client) error {
		result, err := node.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
			SigVerify:  false,
			Commitment: c.commitment,
		})
		if err != nil {
			return err
		}
		units := uint64(0)
		if result.Value.UnitsConsumed != nil {
			units = *result.Value.UnitsConsumed
		}
		out = &blockchain.SimulationResult{
			Err:           result.Value.Err,
			Logs:          result.Value.Logs,
			UnitsConsumed: units,
		}
		return nil
	})
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями без повторов.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	var sig solana.Signature
	err := c.pool.Do(ctx, "sendTransaction", func(ctx context.Context, node *rpc.Client) error {
		var err error
		sig, err = node.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
		})
		return err
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var result *rpc.GetSignatureStatusesResult
	err := c.pool.ExecuteWithRetry(ctx, "getSignatureStatuses", func(ctx context.Context, node *rpc.Client) error {
		var err error
		result, err = node.GetSignatureStatuses(ctx, true, signatures...)
		return err
	})
	if err != nil {
		c.logger.Debug("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetBalance получает баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	var lamports uint64
	err := c.pool.ExecuteWithRetry(ctx, "getBalance", func(ctx context.Context, node *rpc.Client) error {
		res, err := node.GetBalance(ctx, pubkey, commitment)
		if err != nil {
			return err
		}
		lamports = res.Value
		return nil
	})
	if err != nil {
		c.logger.Error("GetBalance error", zap.Error(err))
		return 0, err
	}
	return lamports, nil
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	var res *rpc.GetTokenAccountBalanceResult
	err := c.pool.ExecuteWithRetry(ctx, "getTokenAccountBalance", func(ctx context.Context, node *rpc.Client) error {
		var err error
		res, err = node.GetTokenAccountBalance(ctx, account, c.commitment)
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) || isMissingAccount(err) {
		return nil, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
	}
	return res, err
}

// isMissingAccount распознаёт ответ узла для несуществующего токен-аккаунта.
func isMissingAccount(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(strings.ToLower(rpcErr.Message), "could not find account")
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
