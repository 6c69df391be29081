package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// escrowABI covers the read-only part of the ParcelEscrow contract.
const escrowABI = `[
	{"type":"function","name":"getDelivery","stateMutability":"view",
	 "inputs":[{"name":"_deliveryId","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":[
		{"name":"sender","type":"address"},
		{"name":"driver","type":"address"},
		{"name":"fromAddress","type":"string"},
		{"name":"toAddress","type":"string"},
		{"name":"itemDescription","type":"string"},
		{"name":"itemValue","type":"uint256"},
		{"name":"deliveryFee","type":"uint256"},
		{"name":"escrowAmount","type":"uint256"},
		{"name":"status","type":"uint8"}]}]},
	{"type":"function","name":"deliveryCounter","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// EscrowDelivery is the on-chain record of one delivery. Addresses are
// lowercase hex, empty when unset.
type EscrowDelivery struct {
	Sender          string
	Driver          string
	FromAddress     string
	ToAddress       string
	ItemDescription string
	ItemValue       *big.Int
	DeliveryFee     *big.Int
	EscrowAmount    *big.Int
	Status          uint8
}

// escrowDeliveryTuple mirrors the getDelivery return tuple for abi decoding.
type escrowDeliveryTuple struct {
	Sender          common.Address
	Driver          common.Address
	FromAddress     string
	ToAddress       string
	ItemDescription string
	ItemValue       *big.Int
	DeliveryFee     *big.Int
	EscrowAmount    *big.Int
	Status          uint8
}

//go:generate mockgen -source=escrow.go -destination=mock_escrow.go -package=services

// EscrowReader reads deliveries from the escrow contract. Delivery ids run
// from 1 to DeliveryCounter.
type EscrowReader interface {
	GetDelivery(ctx context.Context, deliveryID *big.Int) (*EscrowDelivery, error)
	DeliveryCounter(ctx context.Context) (*big.Int, error)
}

// EthEscrow reads the escrow contract through a JSON-RPC endpoint.
type EthEscrow struct {
	client   *ethclient.Client
	contract common.Address
	abi      abi.ABI
}

// NewEthEscrow dials rpcURL and binds the contract at address.
func NewEthEscrow(ctx context.Context, rpcURL, address string) (*EthEscrow, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid escrow contract address %q", address)
	}

	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("parse escrow abi: %w", err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	return &EthEscrow{
		client:   client,
		contract: common.HexToAddress(address),
		abi:      parsed,
	}, nil
}

func (e *EthEscrow) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	output, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	return e.abi.Unpack(method, output)
}

// GetDelivery calls getDelivery(uint256).
func (e *EthEscrow) GetDelivery(ctx context.Context, deliveryID *big.Int) (*EscrowDelivery, error) {
	out, err := e.call(ctx, "getDelivery", deliveryID)
	if err != nil {
		return nil, err
	}
	return deliveryFromOutput(out)
}

// DeliveryCounter returns the number of deliveries the contract has issued.
func (e *EthEscrow) DeliveryCounter(ctx context.Context) (*big.Int, error) {
	out, err := e.call(ctx, "deliveryCounter")
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Close releases the RPC connection.
func (e *EthEscrow) Close() {
	e.client.Close()
}

func deliveryFromOutput(out []interface{}) (*EscrowDelivery, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("getDelivery: unexpected output length %d", len(out))
	}

	d := *abi.ConvertType(out[0], new(escrowDeliveryTuple)).(*escrowDeliveryTuple)

	return &EscrowDelivery{
		Sender:          addressString(d.Sender),
		Driver:          addressString(d.Driver),
		FromAddress:     d.FromAddress,
		ToAddress:       d.ToAddress,
		ItemDescription: d.ItemDescription,
		ItemValue:       d.ItemValue,
		DeliveryFee:     d.DeliveryFee,
		EscrowAmount:    d.EscrowAmount,
		Status:          d.Status,
	}, nil
}

func addressString(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return strings.ToLower(addr.Hex())
}
