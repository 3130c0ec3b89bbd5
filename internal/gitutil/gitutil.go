package gitutil

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

// Client shells out to git for seeding candidate workspaces and exporting
// submissions. Tokens never appear in logs or returned errors.
type Client struct {
	projectsDir string
	logger      *zap.Logger
}

func New(projectsDir string, logger *zap.Logger) *Client {
	return &Client{projectsDir: projectsDir, logger: logger}
}

// InstanceDir is where an instance's working copy lives on the host.
func (c *Client) InstanceDir(instanceID uint) string {
	return filepath.Join(c.projectsDir, fmt.Sprintf("instance-%d", instanceID))
}

// CloneForInstance clones the test's starter repository into the instance's
// project directory and returns that directory.
func (c *Client) CloneForInstance(ctx context.Context, instanceID uint, repoURL, token string) (string, error) {
	dir := c.InstanceDir(instanceID)
	cloneURL, err := tokenize(repoURL, token)
	if err != nil {
		return "", err
	}
	if out, err := c.run(ctx, "", "clone", "--depth", "1", cloneURL, dir); err != nil {
		return "", fmt.Errorf("clone %s: %s", redact(repoURL), out)
	}
	c.logger.Info("cloned starter repository",
		zap.Uint("instance_id", instanceID),
		zap.String("repo", redact(repoURL)))
	return dir, nil
}

// PushToTarget pushes the instance's working copy to the company's archive
// repository, under a branch named for the instance.
func (c *Client) PushToTarget(ctx context.Context, instanceID uint, targetURL, token string) error {
	dir := c.InstanceDir(instanceID)
	pushURL, err := tokenize(targetURL, token)
	if err != nil {
		return err
	}
	branch := fmt.Sprintf("instance-%d", instanceID)
	if out, err := c.run(ctx, dir, "push", pushURL, "HEAD:"+branch); err != nil {
		return fmt.Errorf("push %s: %s", redact(targetURL), out)
	}
	c.logger.Info("pushed submission",
		zap.Uint("instance_id", instanceID),
		zap.String("repo", redact(targetURL)),
		zap.String("branch", branch))
	return nil
}

func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return redact(string(out)), err
}

// tokenize embeds an access token into an https remote URL.
func tokenize(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository url %s", redact(rawURL))
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("repository url must be https, got %s", u.Scheme)
	}
	if token != "" {
		u.User = url.UserPassword("x-access-token", token)
	}
	return u.String(), nil
}

var credRe = regexp.MustCompile(`//[^/@\s]+@`)

// redact strips any credential portion from URLs embedded in git output.
func redact(s string) string {
	return credRe.ReplaceAllString(s, "//***@")
}
