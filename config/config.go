package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

// ChatConfig holds configuration for the chat service binary.
type ChatConfig struct {
	config.ConfigurationDefault

	// Reference data
	DataDir    string `envDefault:"./data" env:"DATA_DIR"`
	WatchFiles bool   `envDefault:"true"   env:"DATA_WATCH_FILES"`

	// Sessions
	SessionTTLMin             int `envDefault:"30" env:"SESSION_TTL_MIN"`
	LongConversationThreshold int `envDefault:"40" env:"LONG_CONVERSATION_THRESHOLD"`

	// Booking forwarder
	ForwardSecret     string `envDefault:""    env:"FORWARD_SIGNING_SECRET"`
	ForwardMaxRetries int    `envDefault:"5"   env:"FORWARD_MAX_RETRIES"`
	ForwardTimeoutSec int    `envDefault:"10"  env:"FORWARD_TIMEOUT_SEC"`
	ForwardBackoffSec int    `envDefault:"1"   env:"FORWARD_BACKOFF_INITIAL_SEC"`
	ForwardBackoffMax int    `envDefault:"300" env:"FORWARD_BACKOFF_MAX_SEC"`
	CBFailThreshold   int    `envDefault:"5"   env:"CB_FAILURE_THRESHOLD"`
	CBResetTimeoutSec int    `envDefault:"60"  env:"CB_RESET_TIMEOUT_SEC"`

	// Private booking endpoints are normally rejected; local test setups
	// may need to allow them.
	ForwardAllowPrivateIPs bool `envDefault:"false" env:"FORWARD_ALLOW_PRIVATE_IPS"`
}

// SessionTTL returns the session idle timeout as a duration.
func (c *ChatConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}
