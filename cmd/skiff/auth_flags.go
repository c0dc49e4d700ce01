package main

import (
	"os"
	"strings"

	"github.com/skiff-vcs/skiff/pkg/remote"
	"github.com/spf13/cobra"
)

// authFlags is the credential surface shared by the remote commands.
// Precedence: --token, then --key, then --username/--password, then the
// SKIFF_TOKEN / SKIFF_USERNAME / SKIFF_PASSWORD environment, then anonymous.
type authFlags struct {
	token    string
	username string
	password string
	keyPath  string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.token, "token", "", "bearer token for the remote")
	cmd.Flags().StringVar(&f.username, "username", "", "username for basic or key auth")
	cmd.Flags().StringVar(&f.password, "password", "", "password for basic auth")
	cmd.Flags().StringVar(&f.keyPath, "key", "", "SSH private key path for key auth (~ is expanded)")
}

func (f *authFlags) authenticator() remote.Authenticator {
	if strings.TrimSpace(f.token) != "" {
		return remote.TokenAuth{Token: f.token}
	}
	if strings.TrimSpace(f.keyPath) != "" {
		return remote.KeyAuth{Username: f.username, KeyPath: f.keyPath}
	}
	if strings.TrimSpace(f.username) != "" {
		return remote.BasicAuth{Username: f.username, Password: f.password}
	}
	if token := strings.TrimSpace(os.Getenv("SKIFF_TOKEN")); token != "" {
		return remote.TokenAuth{Token: token}
	}
	if user := strings.TrimSpace(os.Getenv("SKIFF_USERNAME")); user != "" {
		return remote.BasicAuth{Username: user, Password: os.Getenv("SKIFF_PASSWORD")}
	}
	return remote.Anonymous{}
}
