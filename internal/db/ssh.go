package db

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// SSHConfig holds SSH tunnel details for Postgres connections
type SSHConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyPath  string
}

// SSHTunnel represents an active SSH connection that can dial
type SSHTunnel struct {
	client *ssh.Client
}

// NewSSHTunnel establishes an SSH connection, trying key file, agent and
// password auth in that order.
func NewSSHTunnel(config *SSHConfig, logger *slog.Logger) (*SSHTunnel, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("SSH host is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	authMethods := []ssh.AuthMethod{}

	if config.KeyPath != "" {
		if signer, err := loadSigner(config.KeyPath, config.Password); err == nil {
			authMethods = append(authMethods, ssh.PublicKeys(signer))
		} else {
			logger.Debug("ssh key unusable", "path", config.KeyPath, "error", err)
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			agentClient := agent.NewClient(conn)
			authMethods = append(authMethods, ssh.PublicKeysCallback(agentClient.Signers))
		} else {
			logger.Debug("ssh agent unreachable", "error", err)
		}
	}

	if config.Password != "" {
		authMethods = append(authMethods, ssh.Password(config.Password))
		// Some servers take keyboard-interactive where password auth is off.
		authMethods = append(authMethods, ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = config.Password
			}
			return answers, nil
		}))
	}

	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no valid SSH authentication methods found")
	}

	cliConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		HostKeyAlgorithms: []string{
			ssh.KeyAlgoED25519,
			ssh.KeyAlgoRSASHA512,
			ssh.KeyAlgoRSASHA256,
			ssh.KeyAlgoRSA,
			ssh.KeyAlgoECDSA256,
			ssh.KeyAlgoECDSA384,
			ssh.KeyAlgoECDSA521,
		},
	}

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	logger.Debug("dialing ssh", "address", address, "user", config.User)
	client, err := ssh.Dial("tcp", address, cliConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH: %w", err)
	}

	return &SSHTunnel{client: client}, nil
}

func loadSigner(keyPath, passphrase string) (ssh.Signer, error) {
	if len(keyPath) > 1 && keyPath[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			keyPath = filepath.Join(home, keyPath[2:])
		}
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil && passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	}
	return signer, err
}

// DialContext connects to a remote address through the tunnel. The dial
// goroutine may outlive a cancelled context; its connection is dropped when
// it lands.
func (t *SSHTunnel) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		conn, err := t.client.Dial(network, addr)
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-ch:
		return res.conn, res.err
	}
}

// Close closes the SSH connection
func (t *SSHTunnel) Close() error {
	return t.client.Close()
}
