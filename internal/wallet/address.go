package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyAddress    = errors.New("empty withdrawal address")
	ErrInvalidAddress  = errors.New("invalid withdrawal address")
	ErrChecksumAddress = errors.New("withdrawal address fails EIP-55 checksum")
)

// evmCurrencies are withdrawn over Ethereum, so their destinations are plain
// 20 byte hex addresses.
var evmCurrencies = map[string]bool{
	"eth":   true,
	"gusd":  true,
	"usdc":  true,
	"usdt":  true,
	"dai":   true,
	"link":  true,
	"uni":   true,
	"aave":  true,
	"matic": true,
	"bat":   true,
	"mkr":   true,
	"crv":   true,
	"comp":  true,
	"snx":   true,
	"yfi":   true,
	"shib":  true,
	"ape":   true,
}

// IsEVM reports whether currency settles on an EVM chain.
func IsEVM(currency string) bool {
	return evmCurrencies[strings.ToLower(currency)]
}

// ValidateWithdrawalAddress catches malformed destinations before they reach
// the exchange. EVM addresses must be 0x-prefixed hex; mixed case ones must
// also carry a valid EIP-55 checksum. Other currencies only get a shape check.
func ValidateWithdrawalAddress(currency, address string) error {
	if address == "" {
		return ErrEmptyAddress
	}
	if strings.TrimSpace(address) != address || strings.ContainsAny(address, " \t\r\n") {
		return fmt.Errorf("%w: contains whitespace", ErrInvalidAddress)
	}

	if !IsEVM(currency) {
		return nil
	}

	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, address)
	}

	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}

	body := address[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != address {
		return fmt.Errorf("%w: expected %s", ErrChecksumAddress, addr.Hex())
	}
	return nil
}
