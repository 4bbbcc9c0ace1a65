package gitsource

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// credentials map the configured access mode to a go-git transport method.
// resolve runs per network operation, so a replaced SSH key file takes
// effect without re-creating the source.
type credentials struct {
	mode    string
	resolve func() (transport.AuthMethod, error)
}

// newCredentials validates the auth configuration and builds the resolver.
// Supported modes: "token" (HTTPS with an access token), "ssh" (key file
// with optional passphrase), and "none" (the default, for public
// repositories).
func newCredentials(cfg *AuthConfig) (*credentials, error) {
	if cfg == nil {
		cfg = &AuthConfig{}
	}

	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires a non-empty token")
		}
		token := cfg.Token
		return &credentials{
			mode: "token",
			resolve: func() (transport.AuthMethod, error) {
				// The username is ignored for token-based HTTPS auth.
				return &githttp.BasicAuth{Username: "git", Password: token}, nil
			},
		}, nil

	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		keyPath, passphrase := cfg.SSHKeyPath, cfg.SSHKeyPassphrase
		return &credentials{
			mode: "ssh",
			resolve: func() (transport.AuthMethod, error) {
				return loadSSHKey(keyPath, passphrase)
			},
		}, nil

	case "none", "":
		return &credentials{
			mode:    "none",
			resolve: func() (transport.AuthMethod, error) { return nil, nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}

// loadSSHKey reads the private key, refusing key files readable by group or
// other.
func loadSSHKey(keyPath, passphrase string) (transport.AuthMethod, error) {
	info, err := os.Stat(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access SSH key: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return nil, fmt.Errorf("SSH key %q permissions too open (%o), want 0600", keyPath, mode)
	}

	key, err := gitssh.NewPublicKeysFromFile("git", keyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return key, nil
}
