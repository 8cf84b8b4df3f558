package airdrop

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// testAllowlist mirrors the off-chain commitment builder: leaves are hashed
// with LeafHash and combined pairwise with sorted-pair hashing, promoting an
// unpaired node to the next level unchanged.
type testAllowlist struct {
	entries []allowlistEntry
	leaves  [][32]byte
	root    [32]byte
}

type allowlistEntry struct {
	recipient [20]byte
	amount    *big.Int
}

func buildAllowlist(entries ...allowlistEntry) *testAllowlist {
	al := &testAllowlist{entries: entries}
	for _, entry := range entries {
		al.leaves = append(al.leaves, LeafHash(entry.recipient, entry.amount))
	}
	level := append([][32]byte(nil), al.leaves...)
	for len(level) > 1 {
		var next [][32]byte
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	if len(level) == 1 {
		al.root = level[0]
	}
	return al
}

// proofFor returns the sibling path for the leaf at the given index.
func (al *testAllowlist) proofFor(index int) [][]byte {
	var proof [][]byte
	level := append([][32]byte(nil), al.leaves...)
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, append([]byte(nil), level[sibling][:]...))
		}
		var next [][32]byte
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
		index /= 2
	}
	return proof
}

func testRecipient(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testEntries(n int) []allowlistEntry {
	entries := make([]allowlistEntry, n)
	for i := range entries {
		entries[i] = allowlistEntry{
			recipient: testRecipient(byte(i + 1)),
			amount:    big.NewInt(int64(1000 * (i + 1))),
		}
	}
	return entries
}

func TestVerifyProofAcceptsMembers(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8, 13} {
		al := buildAllowlist(testEntries(size)...)
		for i, entry := range al.entries {
			ok := VerifyProof(al.root, entry.recipient, entry.amount, al.proofFor(i))
			require.True(t, ok, "size=%d leaf=%d must verify", size, i)
		}
	}
}

func TestVerifyProofRejectsTamperedClaims(t *testing.T) {
	al := buildAllowlist(testEntries(5)...)
	entry := al.entries[2]
	proof := al.proofFor(2)

	require.False(t, VerifyProof(al.root, entry.recipient, big.NewInt(999_999), proof),
		"inflated entitlement must not verify")
	require.False(t, VerifyProof(al.root, testRecipient(0xEE), entry.amount, proof),
		"substituted recipient must not verify")

	wrongProof := al.proofFor(3)
	require.False(t, VerifyProof(al.root, entry.recipient, entry.amount, wrongProof))
}

func TestVerifyProofRejectsMalformedProof(t *testing.T) {
	al := buildAllowlist(testEntries(4)...)
	entry := al.entries[0]

	require.False(t, VerifyProof(al.root, entry.recipient, entry.amount, [][]byte{[]byte("short")}))
	require.False(t, VerifyProof(al.root, entry.recipient, entry.amount, [][]byte{make([]byte, 33)}))
	require.False(t, VerifyProof(al.root, entry.recipient, entry.amount, [][]byte{nil}))
}

func TestVerifyProofRejectsOutOfRangeAmounts(t *testing.T) {
	al := buildAllowlist(testEntries(2)...)
	entry := al.entries[0]
	proof := al.proofFor(0)

	require.False(t, VerifyProof(al.root, entry.recipient, nil, proof))
	require.False(t, VerifyProof(al.root, entry.recipient, big.NewInt(-1), proof))

	huge := new(big.Int).Lsh(big.NewInt(1), 257)
	require.False(t, VerifyProof(al.root, entry.recipient, huge, proof))
}

func TestVerifyProofSingleLeaf(t *testing.T) {
	entry := allowlistEntry{recipient: testRecipient(0x01), amount: big.NewInt(42)}
	al := buildAllowlist(entry)

	require.Equal(t, LeafHash(entry.recipient, entry.amount), al.root)
	require.True(t, VerifyProof(al.root, entry.recipient, entry.amount, nil))
}

func TestVerifyProofAgainstRotatedRoot(t *testing.T) {
	al1 := buildAllowlist(testEntries(4)...)
	al2 := buildAllowlist(testEntries(6)...)
	entry := al1.entries[1]
	proof := al1.proofFor(1)

	require.True(t, VerifyProof(al1.root, entry.recipient, entry.amount, proof))
	require.False(t, VerifyProof(al2.root, entry.recipient, entry.amount, proof),
		"proof built against the old root must fail after rotation")
}

func TestHashPairOrderIndependent(t *testing.T) {
	a := LeafHash(testRecipient(0x01), big.NewInt(1))
	b := LeafHash(testRecipient(0x02), big.NewInt(2))
	require.Equal(t, hashPair(a, b), hashPair(b, a))
	require.NotEqual(t, hashPair(a, b), hashPair(a, a))
}

func TestLeafHashBindsRecipientToAmount(t *testing.T) {
	recipient := testRecipient(0x07)
	require.NotEqual(t, LeafHash(recipient, big.NewInt(100)), LeafHash(recipient, big.NewInt(101)))
	require.NotEqual(t, LeafHash(recipient, big.NewInt(100)), LeafHash(testRecipient(0x08), big.NewInt(100)))
}
