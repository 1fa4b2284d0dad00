package core

// Gateway selects which service gateway a client connects to.
type Gateway int

// Gateway constants define the available service gateways.
const (
	// GatewayNearest lets the service route to the closest region.
	GatewayNearest Gateway = iota
	// GatewayUsEast1 pins the client to the us-east-1 region.
	GatewayUsEast1
	// GatewayEuWest1 pins the client to the eu-west-1 region.
	GatewayEuWest1
)

// String returns the region name of the gateway.
func (g Gateway) String() string {
	return [...]string{
		"nearest",
		"us-east-1",
		"eu-west-1",
	}[g]
}

// HistURL returns the base URL of the gateway's historical HTTP API.
func (g Gateway) HistURL() string {
	switch g {
	case GatewayUsEast1:
		return "https://us-east-1.hist.tickvault.com"
	case GatewayEuWest1:
		return "https://eu-west-1.hist.tickvault.com"
	default:
		return "https://hist.tickvault.com"
	}
}

// LiveAddr returns the TCP address of the gateway's live endpoint.
func (g Gateway) LiveAddr() string {
	switch g {
	case GatewayUsEast1:
		return "us-east-1.live.tickvault.com:13000"
	case GatewayEuWest1:
		return "eu-west-1.live.tickvault.com:13000"
	default:
		return "live.tickvault.com:13000"
	}
}
