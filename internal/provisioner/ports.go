package provisioner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"

	"github.com/docker/docker/api/types"
)

var ErrPortsExhausted = errors.New("no free host port available")

type portTier struct {
	lo, hi int
}

// tiers are scanned in order; the wide last range is the overflow pool.
var portTiers = []portTier{
	{8000, 8999},
	{9000, 9999},
	{20000, 29999},
}

const attemptsPerTier = 50

// allocatePort picks a host port that is bindable at the OS level and not
// already published by a running container. The selection is randomized
// within each tier, so two racing allocations rarely collide; the daemon
// rejects the loser at container start.
func (p *Provisioner) allocatePort(ctx context.Context) (int, error) {
	claimed, err := p.claimedPorts(ctx)
	if err != nil {
		return 0, err
	}
	for _, tier := range portTiers {
		span := tier.hi - tier.lo + 1
		for i := 0; i < attemptsPerTier; i++ {
			candidate := tier.lo + rand.Intn(span)
			if claimed[candidate] {
				continue
			}
			if portBindable(candidate) {
				return candidate, nil
			}
		}
	}
	return 0, ErrPortsExhausted
}

// claimedPorts returns host ports published by running containers. The OS
// bind probe alone misses ports mapped by containers whose proxy process is
// not currently listening.
func (p *Provisioner) claimedPorts(ctx context.Context) (map[int]bool, error) {
	containers, err := p.cli.ContainerList(ctx, types.ContainerListOptions{})
	if err != nil {
		return nil, translateDockerErr(err)
	}
	claimed := make(map[int]bool)
	for _, c := range containers {
		for _, port := range c.Ports {
			if port.PublicPort > 0 {
				claimed[int(port.PublicPort)] = true
			}
		}
	}
	return claimed, nil
}

func portBindable(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
