package ethereum

import (
	"context"
	"math/big"
	"strings"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// depositEventSignature is the Deposited(address,address,uint256) topic: wallet and
// asset are indexed, the raw amount rides in the data segment. Native-asset deposits
// carry the zero address as asset.
var depositEventSignature = crypto.Keccak256Hash([]byte("Deposited(address,address,uint256)"))

// AssetConfig describes one asset accepted by the ledger contract of a chain.
type AssetConfig struct {
	Symbol   string
	Decimals int32
}

// ChainConfig describes one watched chain.
type ChainConfig struct {
	Name          string
	RPCURL        string
	Contract      common.Address
	Confirmations uint64

	// Assets maps lowercase token addresses to their config. The zero address
	// entry describes the chain's native asset.
	Assets map[string]AssetConfig
}

// LogReader provides an interface for fetching confirmed deposit events of a chain.
//
//go:generate mockgen --destination=client.mock.go --package=ethereum . LogReader
type LogReader interface {
	// LatestBlock returns the current chain head number.
	LatestBlock(ctx context.Context) (uint64, error)

	// DepositEvents returns the deposit events logged by the ledger contract in
	// the inclusive block range [from, to], already shaped as seen-state records.
	DepositEvents(ctx context.Context, from, to uint64) ([]*mmodel.Deposit, error)
}

// Client wraps an ethclient bound to one chain's ledger contract.
type Client struct {
	chain  ChainConfig
	client *ethclient.Client
}

// NewClient dials the chain's RPC endpoint.
func NewClient(chain ChainConfig) (*Client, error) {
	client, err := ethclient.Dial(chain.RPCURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		chain:  chain,
		client: client,
	}, nil
}

// Chain returns the chain configuration the client is bound to.
func (c *Client) Chain() ChainConfig {
	return c.chain
}

// LatestBlock returns the current chain head number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// DepositEvents returns the deposit events logged by the ledger contract in [from, to].
func (c *Client) DepositEvents(ctx context.Context, from, to uint64) ([]*mmodel.Deposit, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "ethereum.deposit_events")
	defer span.End()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.chain.Contract},
		Topics:    [][]common.Hash{{depositEventSignature}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to filter logs", err)

		return nil, err
	}

	deposits := make([]*mmodel.Deposit, 0, len(logs))

	for _, entry := range logs {
		dep, ok := c.decodeLog(entry)
		if !ok {
			continue
		}

		deposits = append(deposits, dep)
	}

	return deposits, nil
}

// decodeLog shapes a raw log into a seen-state deposit record. Events whose asset is
// not configured still surface (with the raw address as asset) so policy can reject
// them instead of silently dropping money.
func (c *Client) decodeLog(entry types.Log) (*mmodel.Deposit, bool) {
	if len(entry.Topics) < 3 || entry.Removed {
		return nil, false
	}

	wallet := common.BytesToAddress(entry.Topics[1].Bytes())
	assetAddr := common.BytesToAddress(entry.Topics[2].Bytes())
	amount := new(big.Int).SetBytes(entry.Data)

	asset := strings.ToLower(assetAddr.Hex())
	if cfg, ok := c.chain.Assets[asset]; ok {
		asset = cfg.Symbol
	}

	return &mmodel.Deposit{
		EventID:     mmodel.ChainEventID(c.chain.Name, entry.TxHash.Hex(), uint(entry.Index)),
		Chain:       c.chain.Name,
		TxHash:      entry.TxHash.Hex(),
		LogIndex:    uint(entry.Index),
		Wallet:      strings.ToLower(wallet.Hex()),
		Asset:       asset,
		RawAmount:   amount.String(),
		BlockNumber: entry.BlockNumber,
	}, true
}

// AssetDecimals returns the decimals of a configured asset symbol, 18 when unknown.
func (c *Client) AssetDecimals(symbol string) int32 {
	for _, cfg := range c.chain.Assets {
		if cfg.Symbol == symbol {
			return cfg.Decimals
		}
	}

	return 18
}
