package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// ListManagedContainers returns every container labelled as managed by
// pyfmt, including stopped ones. When root is non-empty only containers
// for that repository are returned.
//
// Formatter containers are removed as soon as they exit, so anything
// returned here was left behind by an interrupted or crashed run.
func ListManagedContainers(ctx context.Context, cli *Client, root string) ([]model.ContainerInfo, error) {
	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: managedFilter(root),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		info, err := containerToInfo(c)
		if err != nil {
			continue
		}
		result = append(result, *info)
	}
	return result, nil
}

// containerToInfo converts a Docker API container summary into the
// domain model. The name's leading "/" added by the Docker API is stripped.
func containerToInfo(c container.Summary) (*model.ContainerInfo, error) {
	info, err := ParseLabels(c.Labels)
	if err != nil {
		return nil, err
	}
	info.ContainerID = c.ID
	if len(c.Names) > 0 {
		info.ContainerName = strings.TrimPrefix(c.Names[0], "/")
	}
	info.State = string(c.State)
	return info, nil
}

// RemoveContainer force-removes a container along with its anonymous volumes.
func RemoveContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.inner.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", shortID(containerID)),
			err,
		)
	}
	return nil
}

// PruneContainers removes every leftover container ListManagedContainers
// finds for root. It stops at the first removal that fails and returns the
// containers removed so far together with the error, so the caller can
// still report partial progress.
func PruneContainers(ctx context.Context, cli *Client, root string, logf func(string, ...interface{})) ([]model.ContainerInfo, error) {
	containers, err := ListManagedContainers(ctx, cli, root)
	if err != nil {
		return nil, err
	}
	if logf != nil {
		logf("Found %d leftover container(s)", len(containers))
	}

	removed := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		if err := RemoveContainer(ctx, cli, c.ContainerID); err != nil {
			return removed, err
		}
		if logf != nil {
			logf("Removed container %s (%s)", c.ContainerName, c.Formatter)
		}
		removed = append(removed, c)
	}
	return removed, nil
}

// shortID truncates a container ID to the 12 characters docker ps shows.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
