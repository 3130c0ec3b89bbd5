package provisioner

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ethanctan/ai-oa/internal/config"
	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/utils"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
)

// workspacePort is the port code-server listens on inside the sandbox;
// workspaceMount is where the candidate's project directory appears.
const (
	workspacePort  = "8080/tcp"
	workspaceMount = "/home/coder/project"
)

type dockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.ContainerCreateCreatedBody, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error)
	ContainerStop(ctx context.Context, containerID string, timeout *time.Duration) error
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
	ContainerLogs(ctx context.Context, containerID string, options types.ContainerLogsOptions) (io.ReadCloser, error)
	NetworkInspect(ctx context.Context, networkID string, options types.NetworkInspectOptions) (types.NetworkResource, error)
	NetworkCreate(ctx context.Context, name string, options types.NetworkCreate) (types.NetworkCreateResponse, error)
}

// Result is what a successful provisioning returns. The orchestrator commits
// it to the instance row; the provisioner itself never touches persistence.
type Result struct {
	ContainerID string
	Port        int
	AccessURL   string
}

type Provisioner struct {
	cli         dockerClient
	logger      *zap.Logger
	image       string
	dockerfile  string
	networkMode string
	networkName string
	baseDomain  string
	dockerUser  string

	healthInterval time.Duration
	healthTimeout  time.Duration
}

func New(cfg *config.Config, logger *zap.Logger) (*Provisioner, error) {
	cli, err := newDockerClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Provisioner{
		cli:            cli,
		logger:         logger,
		image:          cfg.SandboxImage,
		dockerfile:     cfg.SandboxDockerfile,
		networkMode:    cfg.NetworkMode,
		networkName:    cfg.NetworkName,
		baseDomain:     cfg.BaseDomain,
		dockerUser:     utils.GetEnv("DOCKER_USER", "coder"),
		healthInterval: 2 * time.Second,
		healthTimeout:  60 * time.Second,
	}, nil
}

// Provision stands up a sandbox container for one instance and waits for it
// to report healthy. It runs synchronously on the calling goroutine; the
// caller owns the deadline via ctx. A non-empty workspaceDir is bind-mounted
// as the candidate's project directory.
func (p *Provisioner) Provision(ctx context.Context, instanceID uint, test *models.Test, candidateID uint, workspaceDir string) (*Result, error) {
	if err := p.ensureImage(ctx); err != nil {
		return nil, err
	}

	env := []string{
		fmt.Sprintf("INSTANCE_ID=%d", instanceID),
		fmt.Sprintf("CANDIDATE_ID=%d", candidateID),
		fmt.Sprintf("INITIAL_PROMPT=%s", test.InitialPrompt),
		fmt.Sprintf("FINAL_PROMPT=%s", test.FinalPrompt),
		fmt.Sprintf("GITHUB_REPO=%s", test.GithubRepo),
		fmt.Sprintf("DOCKER_USER=%s", p.dockerUser),
	}

	conf := &container.Config{
		Image: p.image,
		Env:   env,
		ExposedPorts: nat.PortSet{
			nat.Port(workspacePort): struct{}{},
		},
	}

	var (
		hostCfg   = &container.HostConfig{}
		netCfg    *network.NetworkingConfig
		hostPort  int
		accessURL string
	)
	if workspaceDir != "" {
		hostCfg.Binds = []string{workspaceDir + ":" + workspaceMount}
	}
	switch p.networkMode {
	case config.NetworkModeBridge:
		if err := p.ensureNetwork(ctx); err != nil {
			return nil, err
		}
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				p.networkName: {Aliases: []string{containerName(instanceID)}},
			},
		}
		accessURL = p.subdomainURL(instanceID)
	default:
		port, err := p.allocatePort(ctx)
		if err != nil {
			return nil, err
		}
		hostPort = port
		hostCfg.PortBindings = nat.PortMap{
			nat.Port(workspacePort): []nat.PortBinding{
				{HostIP: "0.0.0.0", HostPort: strconv.Itoa(port)},
			},
		}
		accessURL = fmt.Sprintf("http://localhost:%d", port)
	}

	create, err := p.cli.ContainerCreate(ctx, conf, hostCfg, netCfg, nil, containerName(instanceID))
	if err != nil {
		return nil, translateDockerErr(err)
	}
	cid := create.ID

	if err := p.cli.ContainerStart(ctx, cid, types.ContainerStartOptions{}); err != nil {
		p.removeContainer(cid)
		return nil, translateDockerErr(err)
	}

	if err := p.waitHealthy(ctx, cid); err != nil {
		p.removeContainer(cid)
		return nil, err
	}

	p.logger.Info("sandbox container ready",
		zap.Uint("instance_id", instanceID),
		zap.String("container_id", cid),
		zap.Int("port", hostPort))

	return &Result{ContainerID: cid, Port: hostPort, AccessURL: accessURL}, nil
}

// Teardown stops and removes the container. A container already absent from
// the daemon is the desired end state, reported via gone=true rather than an
// error.
func (p *Provisioner) Teardown(ctx context.Context, containerID string) (gone bool, err error) {
	stopTimeout := 10 * time.Second
	if err := p.cli.ContainerStop(ctx, containerID, &stopTimeout); err != nil {
		if client.IsErrNotFound(err) {
			return true, nil
		}
		return false, translateDockerErr(err)
	}
	if err := p.cli.ContainerRemove(ctx, containerID, types.ContainerRemoveOptions{Force: true}); err != nil {
		if client.IsErrNotFound(err) {
			return true, nil
		}
		return false, translateDockerErr(err)
	}
	return false, nil
}

// State reports the live daemon view of a container for listing endpoints.
// A missing container yields (nil, nil).
func (p *Provisioner) State(ctx context.Context, containerID string) (*models.ContainerState, error) {
	cj, err := p.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, nil
		}
		return nil, translateDockerErr(err)
	}
	state := &models.ContainerState{Name: strings.TrimPrefix(cj.Name, "/")}
	if cj.Config != nil {
		state.Image = cj.Config.Image
	}
	if cj.State != nil {
		state.State = cj.State.Status
		state.Healthy = cj.State.Running && (cj.State.Health == nil || cj.State.Health.Status == types.Healthy)
	}
	return state, nil
}

// ensureImage resolves the sandbox image: local cache, then registry pull,
// then an optional build from a local Dockerfile directory.
func (p *Provisioner) ensureImage(ctx context.Context) error {
	_, _, err := p.cli.ImageInspectWithRaw(ctx, p.image)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return translateDockerErr(err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	reader, pullErr := p.cli.ImagePull(pullCtx, p.image, types.ImagePullOptions{})
	if pullErr == nil {
		defer reader.Close()
		_, _ = io.Copy(io.Discard, reader)
		return nil
	}
	if p.dockerfile == "" {
		return translateDockerErr(pullErr)
	}

	p.logger.Info("image pull failed, building from dockerfile",
		zap.String("image", p.image), zap.String("dockerfile", p.dockerfile))
	return p.buildImage(ctx)
}

func (p *Provisioner) buildImage(ctx context.Context) error {
	buildCtx, err := archive.TarWithOptions(p.dockerfile, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("tar build context: %w", err)
	}
	defer buildCtx.Close()

	resp, err := p.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{p.image},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return translateDockerErr(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// waitHealthy polls state + healthcheck until the container is serving or
// the bounded timeout elapses. On timeout the last container logs are folded
// into the error for diagnostics.
func (p *Provisioner) waitHealthy(ctx context.Context, containerID string) error {
	deadline := time.Now().Add(p.healthTimeout)
	for {
		cj, err := p.cli.ContainerInspect(ctx, containerID)
		if err != nil {
			return translateDockerErr(err)
		}
		if cj.State != nil && cj.State.Running {
			if cj.State.Health == nil || cj.State.Health.Status == types.Healthy {
				return nil
			}
		}
		if cj.State != nil && (cj.State.Dead || cj.State.OOMKilled) {
			return fmt.Errorf("container died during startup: %s\nlogs:\n%s", cj.State.Status, p.tailLogs(containerID))
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("container not healthy after %s\nlogs:\n%s", p.healthTimeout, p.tailLogs(containerID))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.healthInterval):
		}
	}
}

func (p *Provisioner) tailLogs(containerID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reader, err := p.cli.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "50",
	})
	if err != nil {
		return fmt.Sprintf("<logs unavailable: %v>", err)
	}
	defer reader.Close()
	var out strings.Builder
	_, _ = stdcopy.StdCopy(&out, &out, reader)
	return out.String()
}

func (p *Provisioner) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.cli.ContainerRemove(ctx, containerID, types.ContainerRemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		p.logger.Warn("failed to remove container", zap.String("container_id", containerID), zap.Error(err))
	}
}
