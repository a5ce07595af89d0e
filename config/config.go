package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from CHATRELAY_-prefixed environment variables.
type Config struct {
	// Port is the main line-protocol listener.
	Port int `envconfig:"PORT" default:"8070" validate:"required,min=1,max=65535"`
	// FilePort is the fixed port of the bulk file-transfer listener the
	// server points clients at; the listener itself runs elsewhere.
	FilePort int `envconfig:"FILE_PORT" default:"9000" validate:"required,min=1,max=65535"`

	UsersPath  string `envconfig:"USERS_PATH" default:"users.txt" validate:"required"`
	GroupsPath string `envconfig:"GROUPS_PATH" default:"groups.txt" validate:"required"`
	// FilesRoot holds one subdirectory per group with its shared files.
	FilesRoot string `envconfig:"FILES_ROOT" default:"ServerFiles/Groups" validate:"required"`

	// ReadTimeout in seconds; 0 disables the read deadline, letting a
	// stalled client hold its connection goroutine indefinitely.
	ReadTimeout  int `envconfig:"READ_TIMEOUT" default:"0" validate:"min=0"`
	WriteTimeout int `envconfig:"WRITE_TIMEOUT" default:"30" validate:"min=1"`

	// OfflineQueueCap bounds the per-user offline mailbox.
	OfflineQueueCap int `envconfig:"OFFLINE_QUEUE_CAP" default:"1000" validate:"min=1"`

	ControlSocket string `envconfig:"CONTROL_SOCKET" default:"/tmp/chatrelay.sock" validate:"required"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("chatrelay", &cfg); err != nil {
		return cfg, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
