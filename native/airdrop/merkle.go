package airdrop

import (
	"bytes"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ProofElementSize is the required byte length of every proof sibling hash.
const ProofElementSize = 32

const maxAmountBits = 256

// LeafHash computes the canonical leaf commitment for one allowlist entry:
// keccak256 of the 20-byte recipient followed by the 32-byte big-endian
// entitlement. This encoding must match the off-chain proof builder exactly.
func LeafHash(recipient [20]byte, amount *big.Int) [32]byte {
	var buf [52]byte
	copy(buf[:20], recipient[:])
	amount.FillBytes(buf[20:])
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(buf[:]))
	return leaf
}

// hashPair combines two nodes with the smaller operand first. Sorting before
// hashing makes verification independent of sibling order and removes the
// left/right ambiguity of naive unordered merkle schemes.
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}

// VerifyProof reports whether (recipient, amount) is a member of the set
// committed to by root. The proof is the ordered sequence of sibling hashes
// from the leaf to the root. Malformed proofs (wrong element sizes, amounts
// outside the committed range) fail verification rather than erroring.
func VerifyProof(root [32]byte, recipient [20]byte, amount *big.Int, proof [][]byte) bool {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > maxAmountBits {
		return false
	}
	node := LeafHash(recipient, amount)
	for _, sibling := range proof {
		if len(sibling) != ProofElementSize {
			return false
		}
		var sib [32]byte
		copy(sib[:], sibling)
		node = hashPair(node, sib)
	}
	return node == root
}
