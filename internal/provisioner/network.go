package provisioner

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// ensureNetwork creates the shared bridge network on first use and reuses it
// afterwards.
func (p *Provisioner) ensureNetwork(ctx context.Context) error {
	_, err := p.cli.NetworkInspect(ctx, p.networkName, types.NetworkInspectOptions{})
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return translateDockerErr(err)
	}
	_, err = p.cli.NetworkCreate(ctx, p.networkName, types.NetworkCreate{
		Driver:         "bridge",
		CheckDuplicate: true,
	})
	return translateDockerErr(err)
}

// subdomainURL is how a reverse proxy reaches an instance on the internal
// network: one stable subdomain per instance id.
func (p *Provisioner) subdomainURL(instanceID uint) string {
	return fmt.Sprintf("https://%s.%s", containerName(instanceID), p.baseDomain)
}

func containerName(instanceID uint) string {
	return fmt.Sprintf("oa-instance-%d", instanceID)
}
