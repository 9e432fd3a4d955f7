package docker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/blackwell-systems/stackctl/internal/config"
)

// ServiceStatus represents the status of a service
type ServiceStatus int

const (
	ServiceUnknown ServiceStatus = iota
	ServiceUp
	ServiceDown
	ServiceStarting
)

func (s ServiceStatus) String() string {
	switch s {
	case ServiceUp:
		return "up"
	case ServiceDown:
		return "down"
	case ServiceStarting:
		return "starting"
	default:
		return "unknown"
	}
}

// Compose labels set on every container compose creates.
const (
	labelProject = "com.docker.compose.project"
	labelService = "com.docker.compose.service"
)

// ContainerLister is the slice of the Engine API client Status needs.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Pinger is the slice of the Engine API client used to reach the daemon.
type Pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// Container is one compose-managed container of the project.
type Container struct {
	Service string
	Name    string
	State   string
	Status  string
}

// Endpoint is an HTTP health probe for a published service.
type Endpoint struct {
	Name   string
	URL    string
	Health ServiceStatus
}

// StackStatus represents the status of the whole stack
type StackStatus struct {
	Project    string
	Containers []Container
	Endpoints  []Endpoint
}

// NewClient connects to the Docker daemon the way the docker CLI does
// (DOCKER_HOST and friends).
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// Ping reports whether the daemon answers.
func Ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// Endpoints returns the health probes for the stack services.
func Endpoints(cfg *config.Config) []Endpoint {
	return []Endpoint{
		{Name: "web", URL: fmt.Sprintf("http://localhost:%d/", cfg.Ports.Web)},
		{Name: "agent", URL: fmt.Sprintf("http://localhost:%d/ok", cfg.Ports.Agent)},
	}
}

// Status returns container state and health of the stack services
func Status(ctx context.Context, lister ContainerLister, project string, endpoints []Endpoint) (*StackStatus, error) {
	status := &StackStatus{Project: project}

	containers, err := lister.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", labelProject+"="+project)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		name := c.ID
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		status.Containers = append(status.Containers, Container{
			Service: c.Labels[labelService],
			Name:    name,
			State:   string(c.State),
			Status:  c.Status,
		})
	}
	sort.Slice(status.Containers, func(i, j int) bool {
		if status.Containers[i].Service != status.Containers[j].Service {
			return status.Containers[i].Service < status.Containers[j].Service
		}
		return status.Containers[i].Name < status.Containers[j].Name
	})

	httpClient := &http.Client{
		Timeout: 2 * time.Second,
	}
	for _, ep := range endpoints {
		ep.Health = checkHealth(ctx, httpClient, ep.URL)
		status.Endpoints = append(status.Endpoints, ep)
	}

	return status, nil
}

// ContainerStatus maps a container's state to a ServiceStatus.
func ContainerStatus(c Container) ServiceStatus {
	switch c.State {
	case "running":
		if strings.Contains(c.Status, "health: starting") {
			return ServiceStarting
		}
		return ServiceUp
	case "created", "restarting":
		return ServiceStarting
	case "exited", "dead", "paused", "removing":
		return ServiceDown
	default:
		return ServiceUnknown
	}
}

func checkHealth(ctx context.Context, httpClient *http.Client, url string) ServiceStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ServiceUnknown
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return ServiceDown
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return ServiceUp
	}

	return ServiceDown
}
