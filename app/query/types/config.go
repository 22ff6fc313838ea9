package types

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/canopy-network/blockgraph/pkg/utils"
)

// ErrPortRequired is returned by LoadConfig when API_PORT is not set.
var ErrPortRequired = errors.New("the API_PORT environment variable is required")

// Config is read once at startup. LoadConfig is the only place it is validated.
type Config struct {
	Host string
	Port int
	// CollapseBackendErrors reports data-access failures as 400 "invalid input"
	// instead of 500, for clients that depend on the legacy behaviour.
	CollapseBackendErrors bool
	RedisEnabled          bool
}

func LoadConfig() (Config, error) {
	rawPort := os.Getenv("API_PORT")
	if rawPort == "" {
		return Config{}, ErrPortRequired
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("invalid API_PORT %q: must be a TCP port between 1 and 65535", rawPort)
	}

	return Config{
		Host:                  utils.Env("API_HOST", ""),
		Port:                  port,
		CollapseBackendErrors: utils.EnvBool("API_COLLAPSE_BACKEND_ERRORS", false),
		RedisEnabled:          utils.EnvBool("REDIS_ENABLED", false),
	}, nil
}

// Addr is the listen address; an empty host binds all interfaces.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
