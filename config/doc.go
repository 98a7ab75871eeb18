// Package config loads service configuration with Viper and godotenv.
//
// LoadConfig reads an optional config.yml, an optional .env file and the
// process environment, in increasing precedence, then unmarshals into the
// target struct using mapstructure tags:
//
//	var cfg ServerConfig
//	err := config.LoadConfig("authkit-server", &cfg, config.WithEnvPrefix("AUTHKIT"))
//
// With the AUTHKIT prefix, AUTHKIT_AUTH_JWT_SECRET sets auth.jwt.secret.
// Targets implementing ApplyDefaults and Validate are defaulted and checked.
package config
