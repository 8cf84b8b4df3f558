package state

var (
	accountPrefix = []byte("airdrop/account/")
	claimedPrefix = []byte("airdrop/claimed/")
	paramPrefix   = []byte("airdrop/params/")
)

// Canonical parameter store keys.
const (
	ParamKeyOwner      = "owner"
	ParamKeyMerkleRoot = "merkle-root"
	ParamKeyGenesis    = "genesis-applied"
)
