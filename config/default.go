package config

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Bridge]
DBPath = "/tmp/gate/bridge.sqlite"
BridgeAddress = "0"
Governor = "0"

[Relay]
WaitOnEmptyQueue = "5s"
RetryAfterErrorPeriod = "1s"
MaxRetryAttemptsAfterError = -1
BatchSize = 32

[RPC]
Host = "0.0.0.0"
Port = 5576
ReadTimeout = "2s"
WriteTimeout = "2s"
MaxRequestsPerIPAndSecond = 500
`
