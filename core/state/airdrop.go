package state

import "fmt"

// Owner returns the address holding administrative rights over the airdrop.
// The boolean reports whether an owner has been configured.
func (m *Manager) Owner() ([20]byte, bool, error) {
	var owner [20]byte
	raw, ok, err := m.ParamStoreGet(ParamKeyOwner)
	if err != nil || !ok {
		return owner, false, err
	}
	if len(raw) != len(owner) {
		return owner, false, fmt.Errorf("state: malformed owner record (%d bytes)", len(raw))
	}
	copy(owner[:], raw)
	return owner, true, nil
}

// SetOwner records the administrative owner address.
func (m *Manager) SetOwner(owner [20]byte) error {
	return m.ParamStoreSet(ParamKeyOwner, owner[:])
}

// MerkleRoot returns the active allowlist commitment root. An unset root reads
// as the zero hash, against which no proof verifies.
func (m *Manager) MerkleRoot() ([32]byte, error) {
	var root [32]byte
	raw, ok, err := m.ParamStoreGet(ParamKeyMerkleRoot)
	if err != nil || !ok {
		return root, err
	}
	if len(raw) != len(root) {
		return root, fmt.Errorf("state: malformed merkle root record (%d bytes)", len(raw))
	}
	copy(root[:], raw)
	return root, nil
}

// SetMerkleRoot replaces the allowlist commitment root. No history is kept;
// proofs built against the previous root stop verifying immediately.
func (m *Manager) SetMerkleRoot(root [32]byte) error {
	return m.ParamStoreSet(ParamKeyMerkleRoot, root[:])
}

// GenesisApplied reports whether the one-time genesis initialisation ran.
func (m *Manager) GenesisApplied() (bool, error) {
	_, ok, err := m.ParamStoreGet(ParamKeyGenesis)
	return ok, err
}

// MarkGenesisApplied records that genesis initialisation completed.
func (m *Manager) MarkGenesisApplied() error {
	return m.ParamStoreSet(ParamKeyGenesis, []byte{1})
}
