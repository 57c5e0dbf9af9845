package common

const (
	// RPC name to identify the JSON-RPC component
	RPC = "rpc"
	// RELAY name to identify the outbound message relay component
	RELAY = "relay"
)
