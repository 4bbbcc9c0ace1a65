package gitsource

import "time"

// Config describes the reference policy repository.
type Config struct {
	// Repository is the clone URL. Local paths work too, which the tests
	// rely on.
	Repository string `yaml:"repository"`

	// Branch is the branch holding the reference policies.
	Branch string `yaml:"branch"`

	// Path is the directory inside the repository containing policy XML.
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned. Defaults to a
	// palisade-policies directory under the OS temp dir.
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history. 0 clones the full history.
	Depth int `yaml:"depth"`

	// CleanOnStart removes any existing clone before cloning.
	CleanOnStart bool `yaml:"clean_on_start"`

	// Timeout bounds clone and pull operations. Default: 60s.
	Timeout time.Duration `yaml:"timeout"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig selects the git authentication method.
type AuthConfig struct {
	// Type is "token", "ssh", or "none". Empty means none.
	Type string `yaml:"type"`

	// Token is a personal access token for HTTPS auth.
	Token string `yaml:"token"`

	// SSHKeyPath is the path to a private key for SSH auth.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted private key. Optional.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// CommitInfo contains metadata about the commit a baseline was read from.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// PullResult describes the outcome of a pull.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}
