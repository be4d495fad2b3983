// internal/porg/program.go
package porg

import "github.com/gagliardetto/solana-go"

// ProgramID is the deployed Porg program.
var ProgramID = solana.PublicKeyFromBytes([]byte{
	0x50, 0x6f, 0x72, 0x67, 0xd1, 0x5e, 0x00, 0x17,
	0x8b, 0x2a, 0x4c, 0x91, 0x33, 0x7e, 0x09, 0xc4,
	0xaa, 0x61, 0x5d, 0x08, 0xf2, 0x9b, 0x40, 0x23,
	0x76, 0x1c, 0xe8, 0x55, 0x0a, 0x9f, 0x31, 0x42,
})

// JupiterProgramID is the swap router every liquidation leg is delegated to.
var JupiterProgramID = solana.PublicKeyFromBytes([]byte{
	0x4b, 0x83, 0x72, 0x1b, 0x7a, 0x9f, 0x65, 0xf1,
	0x6e, 0x95, 0xaa, 0x5c, 0x49, 0x8e, 0x1c, 0x7f,
	0x01, 0x73, 0x48, 0x12, 0x5c, 0x2c, 0x8f, 0x3c,
	0x35, 0xf6, 0x10, 0x11, 0x65, 0x5f, 0x3d, 0x6a,
})

// WormholeProgramID is the cross-chain messaging program (core bridge).
var WormholeProgramID = solana.MustPublicKeyFromBase58("worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth")
