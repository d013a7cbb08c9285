package main

import (
	"errors"
	"flag"
	"fmt"
	"simplefilehost/internal/config"
	"simplefilehost/internal/core/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Bind:          "127.0.0.1",
			MaxSize:       200 << 20,
			SocketTimeout: time.Minute,
		},
	}
}

func TestParseFlags(t *testing.T) {
	// Arrange
	cfg := defaultConfig()

	// Act
	cmd, err := parseFlags(cfg, []string{
		"--port", "8080", "--max-size", "10mb", "--timeout", "5s",
		"--tls", "cert.pem", "key.pem", "--verbose", "send", "file.txt",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"send", "file.txt"}, cmd)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, config.ByteSize(10<<20), cfg.Server.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.Server.SocketTimeout)
	assert.Equal(t, "cert.pem", cfg.TLS.CertFile)
	assert.Equal(t, "key.pem", cfg.TLS.KeyFile)
	assert.True(t, cfg.Log.Verbose)
}

func TestParseFlags_AutoBind(t *testing.T) {
	cfg := defaultConfig()
	_, err := parseFlags(cfg, []string{"--auto-bind"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindHost())

	cfg = defaultConfig()
	_, err = parseFlags(cfg, []string{"--auto-bind", "--bind", "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindHost())
}

func TestParseFlags_Errors(t *testing.T) {
	tests := map[string][]string{
		"tls missing key": {"--tls", "cert.pem"},
		"tls cert only":   {"--tls-cert", "cert.pem"},
		"bad size":        {"--max-size", "huge"},
		"unknown flag":    {"--nope"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(defaultConfig(), args)

			assert.Error(t, err)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitInvalidArg, exitCode(fmt.Errorf("%w: usage", domain.ErrInvalidArgument)))
	assert.Equal(t, exitInvalidArg, exitCode(domain.ErrUnknownCommand))
	assert.Equal(t, exitNetwork, exitCode(fmt.Errorf("%w: listen: in use", domain.ErrStartup)))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
	assert.Equal(t, exitError, exitCode(flag.ErrHelp))
}
