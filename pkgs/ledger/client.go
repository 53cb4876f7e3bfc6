package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/Satyapeddireddy/DecentralizedSocialNetwork/pkgs/wallet"
)

var (
	// ErrRemoteRead indicates a provider or network failure on the read path
	ErrRemoteRead = errors.New("remote read failed")

	// ErrSubmissionFailed indicates a broadcast or on-chain execution failure
	ErrSubmissionFailed = errors.New("post submission failed")
)

// Backend is the subset of the Ethereum client the ledger needs. It is
// satisfied by *ethclient.Client; tests substitute a fake chain.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// ContractBinding is the immutable pairing of the deployed contract's
// address and method interface. Built once at startup and shared by
// every component that constructs calls.
type ContractBinding struct {
	Address common.Address
	ABI     abi.ABI
}

// NewContractBinding parses the embedded SocialNetwork ABI and validates
// the configured address.
func NewContractBinding(contractAddr string) (*ContractBinding, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address: %s", contractAddr)
	}

	parsed, err := abi.JSON(strings.NewReader(SocialNetworkABI))
	if err != nil {
		return nil, fmt.Errorf("failed to load SocialNetwork ABI: %w", err)
	}

	return &ContractBinding{
		Address: common.HexToAddress(contractAddr),
		ABI:     parsed,
	}, nil
}

// Client is the typed adapter over the SocialNetwork contract: a read
// path (count + indexed fetch) and a write path (submit signed post).
// All effects are remote; nothing is cached locally.
type Client struct {
	backend  Backend
	binding  *ContractBinding
	gasLimit uint64
}

// NewClient creates a ledger client with a fixed gas bound for createPost
func NewClient(backend Backend, binding *ContractBinding, gasLimit uint64) *Client {
	return &Client{
		backend:  backend,
		binding:  binding,
		gasLimit: gasLimit,
	}
}

// Binding returns the contract binding the client was built with
func (c *Client) Binding() *ContractBinding {
	return c.binding
}

// call packs a view method, executes it and returns the raw result
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	data, err := c.binding.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &c.binding.Address,
		Data: data,
	}
	result, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRemoteRead, method, err)
	}
	return result, nil
}

// ReadCount fetches the number of posts recorded by the ledger
func (c *Client) ReadCount(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "postCount")
	if err != nil {
		return 0, err
	}

	var count *big.Int
	if err := c.binding.ABI.UnpackIntoInterface(&count, "postCount", result); err != nil {
		return 0, fmt.Errorf("%w: failed to unpack postCount: %v", ErrRemoteRead, err)
	}
	return count.Uint64(), nil
}

// ReadPost fetches one post by its 1-based position
func (c *Client) ReadPost(ctx context.Context, index uint64) (Post, error) {
	result, err := c.call(ctx, "posts", new(big.Int).SetUint64(index))
	if err != nil {
		return Post{}, err
	}

	var out struct {
		Id        *big.Int
		Author    common.Address
		Content   string
		Timestamp *big.Int
	}
	if err := c.binding.ABI.UnpackIntoInterface(&out, "posts", result); err != nil {
		return Post{}, fmt.Errorf("%w: failed to unpack posts(%d): %v", ErrRemoteRead, index, err)
	}

	return Post{
		Author:    out.Author,
		Content:   out.Content,
		Timestamp: out.Timestamp.Int64(),
		Index:     index,
	}, nil
}

// SubmitPost submits a createPost call signed by the given account with
// the given sequence number. Blocks until the transaction is mined or
// the provider reports rejection.
func (c *Client) SubmitPost(ctx context.Context, provider wallet.Provider, signer common.Address, nonce uint64, content string) (*Receipt, error) {
	data, err := c.binding.ABI.Pack("createPost", content)
	if err != nil {
		return nil, fmt.Errorf("failed to pack createPost call: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gas price: %v", ErrRemoteRead, err)
	}

	tx := types.NewTransaction(
		nonce,
		c.binding.Address,
		big.NewInt(0),
		c.gasLimit,
		gasPrice,
		data,
	)

	signedTx, err := provider.SignTx(ctx, signer, tx)
	if err != nil {
		if errors.Is(err, wallet.ErrUserRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: signing failed: %v", ErrSubmissionFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"tx_hash":   signedTx.Hash().Hex(),
		"gas_limit": c.gasLimit,
		"gas_price": gasPrice.String(),
		"nonce":     nonce,
		"signer":    signer.Hex(),
	}).Info("Submitting post")

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("%w: broadcast failed: %v", ErrSubmissionFailed, err)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for receipt: %v", ErrSubmissionFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		logrus.WithField("tx_hash", receipt.TxHash.Hex()).Error("Post submission reverted")
		return nil, fmt.Errorf("%w: transaction reverted", ErrSubmissionFailed)
	}

	logrus.WithFields(logrus.Fields{
		"tx_hash":      receipt.TxHash.Hex(),
		"block_number": receipt.BlockNumber.Uint64(),
		"gas_used":     receipt.GasUsed,
	}).Info("Post submission successful")

	return &Receipt{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// SocialNetworkABI contains the ABI for the deployed SocialNetwork contract
const SocialNetworkABI = `[
	{
		"inputs": [],
		"name": "postCount",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"name": "posts",
		"outputs": [
			{"internalType": "uint256", "name": "id", "type": "uint256"},
			{"internalType": "address", "name": "author", "type": "address"},
			{"internalType": "string", "name": "content", "type": "string"},
			{"internalType": "uint256", "name": "timestamp", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "string", "name": "_content", "type": "string"}
		],
		"name": "createPost",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
