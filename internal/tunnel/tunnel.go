package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/internal/appconfig"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// SSHClient creates a new SSH client
func SSHClient(cfg appconfig.TunnelConfig) (*ssh.Client, error) {
	key, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	sshConfig := &ssh.ClientConfig{
		User: cfg.SSHUser,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		// Development only: the bastion's host key is not pinned
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(cfg.SSHHost, cfg.SSHPort), sshConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.SSHHost, err)
	}
	return client, nil
}

// Dialer opens connections to the far side of the tunnel.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// Forward accepts connections on l and pipes each one to remoteAddr through d until ctx
// is done.
func Forward(ctx context.Context, l net.Listener, d Dialer, remoteAddr string) error {
	logger := zerolog.Ctx(ctx)

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		localConn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn().Err(err).Msg("Failed to accept local connection")
			continue
		}

		remoteConn, err := d.Dial("tcp", remoteAddr)
		if err != nil {
			logger.Error().Err(err).Str("remote", remoteAddr).Msg("Failed to connect to remote host")
			localConn.Close()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			pipe(ctx, localConn, remoteConn)
		}()
	}
}

// pipe copies in both directions and closes both ends once either side is done or ctx is
// cancelled.
func pipe(ctx context.Context, a, b net.Conn) {
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			a.Close()
			b.Close()
		})
	}

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			closeBoth()
		case <-finished:
		}
	}()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(a, b)
		closeBoth()
		done <- struct{}{}
	}()
	go func() {
		io.Copy(b, a)
		closeBoth()
		done <- struct{}{}
	}()
	<-done
	<-done
}

// Start opens the SSH connection and forwards localhost:LocalPort to
// RemoteHost:RemotePort until ctx is cancelled.
func Start(ctx context.Context, cfg appconfig.TunnelConfig) error {
	logger := zerolog.Ctx(ctx)

	client, err := SSHClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	l, err := net.Listen("tcp", net.JoinHostPort("localhost", cfg.LocalPort))
	if err != nil {
		return fmt.Errorf("listening on local port %s: %w", cfg.LocalPort, err)
	}

	remoteAddr := net.JoinHostPort(cfg.RemoteHost, cfg.RemotePort)
	logger.Info().Str("local", l.Addr().String()).Str("remote", remoteAddr).Msg("SSH tunnel started")

	return Forward(ctx, l, client, remoteAddr)
}
