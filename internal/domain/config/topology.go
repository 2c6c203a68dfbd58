package config

// TopologyConfig lists app-gateway links beyond the built-in plug wiring.
type TopologyConfig struct {
	Links []LinkConfig `yaml:"links"`
}

// LinkConfig binds a plug to an app gateway. Plug and Switchboard are either
// hex addresses or ledger contract names on the link's chain; AppGateway is
// a hex identifier or an EVMx contract name.
type LinkConfig struct {
	Chain       string `yaml:"chain"`
	Plug        string `yaml:"plug"`
	AppGateway  string `yaml:"app_gateway"`
	Switchboard string `yaml:"switchboard,omitempty"`
}
