package types

// Event is the wire-level representation of a state change. Attributes are
// rendered as strings so downstream consumers (RPC, indexers) never need to
// understand module-internal types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
