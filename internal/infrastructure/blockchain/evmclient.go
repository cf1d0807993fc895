// Package blockchain implements the chain.Client port over an EVM JSON-RPC
// endpoint using go-ethereum's ethclient.
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"tapbridge/internal/application/bridge/chain"
	"tapbridge/internal/domain/shared/amount"
	"tapbridge/internal/shared/config"
	apperrors "tapbridge/internal/shared/errors"
	"tapbridge/internal/shared/logger"
)

// EVMClient talks to a single JSON-RPC endpoint. Gas price and limit are
// static operator-tuned values from configuration; there is no fee-market
// estimation.
type EVMClient struct {
	client   *ethclient.Client
	chainID  *big.Int
	signer   types.Signer
	gasPrice *big.Int
	gasLimit uint64
	timeout  time.Duration
	logger   logger.Interface
}

var _ chain.Client = (*EVMClient)(nil)

func NewEVMClient(cfg *config.ChainConfig, log logger.Interface) (*EVMClient, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint %s: %w", cfg.RPCURL, err)
	}

	chainID := big.NewInt(cfg.ChainID)
	return &EVMClient{
		client:   client,
		chainID:  chainID,
		signer:   types.NewEIP155Signer(chainID),
		gasPrice: big.NewInt(cfg.GasPriceWei),
		gasLimit: cfg.GasLimit,
		timeout:  time.Duration(cfg.RPCTimeoutMS) * time.Millisecond,
		logger:   log,
	}, nil
}

func (c *EVMClient) Close() {
	c.client.Close()
}

func (c *EVMClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *EVMClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	wei, err := c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: balance query: %v", apperrors.ErrRPCUnavailable, err)
	}

	raw, ok := amount.FromWei(wei)
	if !ok {
		return 0, fmt.Errorf("balance of %s overflows raw units", address)
	}
	return raw, nil
}

func (c *EVMClient) GetPendingNonce(ctx context.Context, address string) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	nonce, err := c.client.PendingNonceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("%w: pending nonce query: %v", apperrors.ErrRPCUnavailable, err)
	}
	return nonce, nil
}

func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block number query: %v", apperrors.ErrRPCUnavailable, err)
	}
	return head, nil
}

// GetConfirmations returns 0 for unmined or unknown transactions.
func (c *EVMClient) GetConfirmations(ctx context.Context, txHash string) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: receipt query: %v", apperrors.ErrRPCUnavailable, err)
	}
	if receipt.BlockNumber == nil {
		return 0, nil
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block number query: %v", apperrors.ErrRPCUnavailable, err)
	}

	mined := receipt.BlockNumber.Uint64()
	if head < mined {
		return 0, nil
	}
	return int(head-mined) + 1, nil
}

// RecentTransfers scans block bodies for native-value transfers to the
// deposit address. Lookback is bounded by the chain head.
func (c *EVMClient) RecentTransfers(ctx context.Context, toAddress string, lookbackBlocks uint64) ([]chain.Transfer, error) {
	head, err := c.GetBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	from := uint64(0)
	if head > lookbackBlocks {
		from = head - lookbackBlocks + 1
	}

	target := common.HexToAddress(toAddress)
	var transfers []chain.Transfer

	for number := from; number <= head; number++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		block, err := c.blockByNumber(ctx, number)
		if err != nil {
			return nil, err
		}

		blockTime := time.Unix(int64(block.Time()), 0).UTC()
		for _, tx := range block.Transactions() {
			if tx.To() == nil || *tx.To() != target || tx.Value().Sign() <= 0 {
				continue
			}

			raw, ok := amount.FromWei(tx.Value())
			if !ok || raw == 0 {
				continue
			}

			fromAddr := ""
			if sender, err := types.Sender(c.signer, tx); err == nil {
				fromAddr = sender.Hex()
			}

			transfers = append(transfers, chain.Transfer{
				TxHash:      tx.Hash().Hex(),
				FromAddress: fromAddr,
				ToAddress:   toAddress,
				AmountRaw:   raw,
				BlockNumber: number,
				Timestamp:   blockTime,
			})
		}
	}

	return transfers, nil
}

func (c *EVMClient) blockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("%w: block %d query: %v", apperrors.ErrRPCUnavailable, number, err)
	}
	return block, nil
}

// BroadcastTransfer signs a legacy value transfer with the given nonce and
// submits it. The signed transaction hash is returned even though mining is
// not awaited; confirmation tracking is the caller's concern.
func (c *EVMClient) BroadcastTransfer(ctx context.Context, key *ecdsa.PrivateKey, nonce uint64, toAddress string, amountRaw uint64) (string, error) {
	tx := types.NewTransaction(
		nonce,
		common.HexToAddress(toAddress),
		amount.ToWei(amountRaw),
		c.gasLimit,
		c.gasPrice,
		nil,
	)

	signed, err := types.SignTx(tx, c.signer, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return "", classifySendError(err)
	}

	txHash := signed.Hash().Hex()
	c.logger.Infow("broadcast transaction",
		"tx_hash", txHash,
		"to_address", toAddress,
		"amount", amount.Format(amountRaw),
		"nonce", nonce,
	)
	return txHash, nil
}

// classifySendError separates connectivity failures, where the transaction
// may be retried with the same nonce semantics intact, from definitive
// node-side rejections.
func classifySendError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperrors.ErrRPCUnavailable, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrChainRejected, err)
}
