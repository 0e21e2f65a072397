package docker

import (
	"fmt"
	"time"

	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// Label keys recorded on every formatter container. Labels are the only
// record of a container's purpose; prune relies on them to find leftovers.
const (
	LabelPrefix = "pyfmt."

	// LabelManagedBy marks containers created by this CLI.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelFormatter is the formatter running in the container (e.g. "black").
	LabelFormatter = LabelPrefix + "formatter"

	// LabelRoot is the absolute host path mounted at ContainerWorkdir.
	LabelRoot = LabelPrefix + "root"

	// LabelStartedAt is an RFC3339 UTC timestamp.
	LabelStartedAt = LabelPrefix + "started-at"
)

// ManagedByValue is the value of LabelManagedBy.
const ManagedByValue = "pyfmt"

// BuildLabels returns the labels for a container running formatter over root.
func BuildLabels(formatter, root string, startedAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelFormatter: formatter,
		LabelRoot:      root,
		LabelStartedAt: startedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reads container metadata back from labels. Containers not
// managed by pyfmt are rejected. A malformed timestamp leaves StartedAt zero.
func ParseLabels(labels map[string]string) (*model.ContainerInfo, error) {
	if v := labels[LabelManagedBy]; v != ManagedByValue {
		return nil, fmt.Errorf("label %s has unexpected value %q (expected %q)", LabelManagedBy, v, ManagedByValue)
	}

	info := &model.ContainerInfo{
		Formatter: labels[LabelFormatter],
		Root:      labels[LabelRoot],
	}
	if ts, ok := labels[LabelStartedAt]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			info.StartedAt = t
		}
	}
	return info, nil
}

// managedFilter selects pyfmt containers, optionally only those for root.
func managedFilter(root string) filters.Args {
	args := filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue))
	if root != "" {
		args.Add("label", LabelRoot+"="+root)
	}
	return args
}
