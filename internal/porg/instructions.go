// internal/porg/instructions.go
package porg

import (
	"github.com/gagliardetto/solana-go"
)

// Instruction discriminators (sha256("global:<name>")[0:8]).
var (
	InitializeDiscriminator     = []byte{0xaf, 0xaf, 0x6d, 0x1f, 0x0d, 0x98, 0x9b, 0xed}
	UpdateFeeDiscriminator      = []byte{0xe8, 0xfd, 0xc3, 0xf7, 0x94, 0xd4, 0x49, 0xde}
	BatchLiquidateDiscriminator = []byte{0xb3, 0x09, 0x24, 0x94, 0x13, 0x84, 0xaa, 0x1c}
	BridgeTokensDiscriminator   = []byte{0x46, 0x41, 0x63, 0x6e, 0x7a, 0xc0, 0xd6, 0x93}
)

// InitializeAccounts lists the accounts of the initialize instruction. The
// state account is a fresh keypair that co-signs its own creation; the
// authority pays rent.
type InitializeAccounts struct {
	State      solana.PublicKey
	Authority  solana.PublicKey
	FeeAccount solana.PublicKey
}

func NewInitializeInstruction(accounts InitializeAccounts) solana.Instruction {
	data := make([]byte, 8)
	var offset int
	putDiscriminator(data, InitializeDiscriminator, &offset)

	metas := []*solana.AccountMeta{
		{PublicKey: accounts.State, IsSigner: true, IsWritable: true},
		{PublicKey: accounts.Authority, IsSigner: true, IsWritable: true},
		{PublicKey: accounts.FeeAccount, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, metas, data)
}

type UpdateFeeAccounts struct {
	State     solana.PublicKey
	Authority solana.PublicKey
}

func NewUpdateFeeInstruction(accounts UpdateFeeAccounts, newFeeBasisPoints uint16) solana.Instruction {
	data := make([]byte, 8+2)
	var offset int
	putDiscriminator(data, UpdateFeeDiscriminator, &offset)
	putUint16(data, newFeeBasisPoints, &offset)

	metas := []*solana.AccountMeta{
		{PublicKey: accounts.State, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.Authority, IsSigner: true, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, metas, data)
}

// BatchLiquidateArgs carries the instruction arguments. Route payloads and
// route account lists are parallel to the candidate token accounts that
// survive filtering, in order.
type BatchLiquidateArgs struct {
	TargetTokenMint  solana.PublicKey
	IncludeDust      bool
	MinTokenValueUSD uint64 // cents
	MinOutputAmount  uint64
	RouteData        [][]byte
	RouteAccounts    [][]solana.PublicKey
}

type BatchLiquidateAccounts struct {
	State              solana.PublicKey
	User               solana.PublicKey
	TargetTokenAccount solana.PublicKey
	FeeAccount         solana.PublicKey

	// Extra is the open-ended account context: candidate token accounts and
	// every account a route references. Passed writable, non-signer.
	Extra []solana.PublicKey
}

func NewBatchLiquidateInstruction(accounts BatchLiquidateAccounts, args BatchLiquidateArgs) solana.Instruction {
	data := make([]byte, batchLiquidateArgsSize(args))
	var offset int

	putDiscriminator(data, BatchLiquidateDiscriminator, &offset)
	putKey(data, args.TargetTokenMint, &offset)
	putBool(data, args.IncludeDust, &offset)
	putUint64(data, args.MinTokenValueUSD, &offset)
	putUint64(data, args.MinOutputAmount, &offset)

	// Borsh vec-of-byte-vecs.
	putUint32(data, uint32(len(args.RouteData)), &offset)
	for _, route := range args.RouteData {
		putUint32(data, uint32(len(route)), &offset)
		putBytes(data, route, &offset)
	}

	// Borsh vec-of-pubkey-vecs.
	putUint32(data, uint32(len(args.RouteAccounts)), &offset)
	for _, keys := range args.RouteAccounts {
		putUint32(data, uint32(len(keys)), &offset)
		for _, key := range keys {
			putKey(data, key, &offset)
		}
	}

	metas := []*solana.AccountMeta{
		{PublicKey: accounts.State, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.User, IsSigner: true, IsWritable: true},
		{PublicKey: accounts.TargetTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.FeeAccount, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	for _, extra := range accounts.Extra {
		metas = append(metas, &solana.AccountMeta{PublicKey: extra, IsSigner: false, IsWritable: true})
	}

	return solana.NewInstruction(ProgramID, metas, data)
}

func batchLiquidateArgsSize(args BatchLiquidateArgs) int {
	size := 8 + 32 + 1 + 8 + 8
	size += 4
	for _, route := range args.RouteData {
		size += 4 + len(route)
	}
	size += 4
	for _, keys := range args.RouteAccounts {
		size += 4 + len(keys)*solana.PublicKeyLength
	}
	return size
}

type BridgeTokensArgs struct {
	Amount           uint64
	TargetChain      uint16
	RecipientAddress [32]byte
	Nonce            uint64
}

type BridgeTokensAccounts struct {
	User               solana.PublicKey
	SourceTokenAccount solana.PublicKey
	BridgeTokenAccount solana.PublicKey

	WormholeConfig       solana.PublicKey
	WormholeMessage      solana.PublicKey
	WormholeEmitter      solana.PublicKey
	WormholeSequence     solana.PublicKey
	WormholeFeeCollector solana.PublicKey
}

func NewBridgeTokensInstruction(accounts BridgeTokensAccounts, args BridgeTokensArgs) solana.Instruction {
	data := make([]byte, 8+8+2+32+8)
	var offset int

	putDiscriminator(data, BridgeTokensDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)
	putUint16(data, args.TargetChain, &offset)
	putBytes(data, args.RecipientAddress[:], &offset)
	putUint64(data, args.Nonce, &offset)

	metas := []*solana.AccountMeta{
		{PublicKey: accounts.User, IsSigner: true, IsWritable: true},
		{PublicKey: accounts.SourceTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.BridgeTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.WormholeConfig, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.WormholeMessage, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.WormholeEmitter, IsSigner: false, IsWritable: false},
		{PublicKey: accounts.WormholeSequence, IsSigner: false, IsWritable: true},
		{PublicKey: accounts.WormholeFeeCollector, IsSigner: false, IsWritable: true},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarClockPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(ProgramID, metas, data)
}
