package provisioner

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/ethanctan/ai-oa/internal/config"

	"github.com/docker/docker/client"
	"go.uber.org/zap"
)

var ErrDockerUnavailable = errors.New("docker daemon unreachable")

// certFiles tracks TLS material written to disk for the remote client.
// Written once per process; removed by Cleanup at shutdown.
var (
	certMu    sync.Mutex
	certFiles []string
)

// Cleanup removes temporary TLS certificate files. Call once at process exit.
func Cleanup() {
	certMu.Lock()
	defer certMu.Unlock()
	for _, f := range certFiles {
		os.Remove(f)
	}
	certFiles = nil
}

// newDockerClient acquires a Docker control-plane handle. When remote TLS
// configuration is present it is tried first; any failure falls back to the
// local socket. Both failing is fatal for the provisioner.
func newDockerClient(cfg *config.Config, logger *zap.Logger) (dockerClient, error) {
	if cfg.DockerHost != "" && cfg.DockerCAPEM != "" {
		cli, err := newRemoteClient(cfg)
		if err == nil {
			if pingErr := pingDaemon(cli); pingErr == nil {
				logger.Info("connected to remote docker daemon", zap.String("host", cfg.DockerHost))
				return cli, nil
			} else {
				err = pingErr
			}
		}
		logger.Warn("remote docker daemon unreachable, falling back to local socket", zap.Error(err))
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, translateDockerErr(err)
	}
	if err := pingDaemon(cli); err != nil {
		return nil, translateDockerErr(err)
	}
	return cli, nil
}

func newRemoteClient(cfg *config.Config) (*client.Client, error) {
	ca, err := writeCertFile("docker-ca-*.pem", cfg.DockerCAPEM)
	if err != nil {
		return nil, err
	}
	cert, err := writeCertFile("docker-cert-*.pem", cfg.DockerCertPEM)
	if err != nil {
		return nil, err
	}
	key, err := writeCertFile("docker-key-*.pem", cfg.DockerKeyPEM)
	if err != nil {
		return nil, err
	}
	return client.NewClientWithOpts(
		client.WithHost(cfg.DockerHost),
		client.WithTLSClientConfig(ca, cert, key),
		client.WithAPIVersionNegotiation(),
	)
}

func writeCertFile(pattern, pem string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(pem); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	certMu.Lock()
	certFiles = append(certFiles, f.Name())
	certMu.Unlock()
	return f.Name(), nil
}

func pingDaemon(cli dockerClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := cli.Ping(ctx)
	return err
}

func translateDockerErr(err error) error {
	if err == nil {
		return nil
	}
	if client.IsErrConnectionFailed(err) {
		return ErrDockerUnavailable
	}
	return err
}
