package config

// AppConfig bundles everything the fleet-node binary needs at start-up.
type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	server, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{Server: server, Log: logCfg}, nil
}
