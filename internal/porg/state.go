// internal/porg/state.go
package porg

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// StateAccountSize is the persisted layout: 8-byte account
	// discriminator, authority (32), fee_basis_points (2), fee_account (32).
	StateAccountSize = 8 + 32 + 2 + 32
)

// StateAccountDiscriminator marks the singleton state account
// (sha256("account:PorgState")[0:8]).
var StateAccountDiscriminator = []byte{0x68, 0x4b, 0x6b, 0xe5, 0x29, 0x95, 0x55, 0x1d}

// StateAccount is the on-chain representation of the program configuration.
type StateAccount struct {
	Authority      solana.PublicKey
	FeeBasisPoints uint16
	FeeAccount     solana.PublicKey
}

func (obj *StateAccount) Marshal() []byte {
	data := make([]byte, StateAccountSize)
	var offset int

	putDiscriminator(data, StateAccountDiscriminator, &offset)
	putKey(data, obj.Authority, &offset)
	putUint16(data, obj.FeeBasisPoints, &offset)
	putKey(data, obj.FeeAccount, &offset)

	return data
}

func (obj *StateAccount) Unmarshal(data []byte) error {
	if len(data) < StateAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, StateAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Authority, &offset)
	getUint16(data, &obj.FeeBasisPoints, &offset)
	getKey(data, &obj.FeeAccount, &offset)

	return nil
}

func (obj *StateAccount) String() string {
	return fmt.Sprintf(
		"PorgState{authority=%s,fee_basis_points=%d,fee_account=%s}",
		obj.Authority, obj.FeeBasisPoints, obj.FeeAccount,
	)
}
