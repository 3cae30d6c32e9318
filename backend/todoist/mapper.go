package todoist

import (
	"sort"
	"strconv"
	"strings"

	"github.com/renanlido/agentic-development-kit-sub001/backend"
)

const (
	// FeatureLabel marks tasks managed by adk
	FeatureLabel = "adk"

	phaseLabelPrefix    = "phase:"
	progressLabelPrefix = "progress:"
)

func isManagedLabel(label string) bool {
	return label == FeatureLabel ||
		strings.HasPrefix(label, phaseLabelPrefix) ||
		strings.HasPrefix(label, progressLabelPrefix)
}

// featureLabels returns the labels encoding local, keeping any labels a
// user added on the Todoist side
func featureLabels(local backend.LocalFeature, existing []string) []string {
	labels := make([]string, 0, len(existing)+3)
	for _, l := range existing {
		if !isManagedLabel(l) {
			labels = append(labels, l)
		}
	}
	labels = append(labels,
		FeatureLabel,
		phaseLabelPrefix+string(local.Phase),
		progressLabelPrefix+strconv.Itoa(backend.ClampProgress(local.Progress)),
	)
	sort.Strings(labels)
	return labels
}

// isComplete reports whether local maps to a completed Todoist task
func isComplete(local backend.LocalFeature) bool {
	return local.Phase == backend.PhaseDocs && local.Progress >= 100
}

// toRemoteFeature converts a Todoist task to a RemoteFeature. Phase and
// progress stay nil when the task carries no (parseable) label for them.
func toRemoteFeature(task *Task) backend.RemoteFeature {
	remote := backend.RemoteFeature{
		ID:        task.ID,
		Name:      task.Content,
		Status:    "open",
		URL:       task.URL,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.IsCompleted {
		remote.Status = "completed"
	}

	// Todoist's v2 task payload has no modification time on older accounts;
	// fall back to the creation time
	if remote.UpdatedAt == "" {
		remote.UpdatedAt = task.CreatedAt
	}

	for _, label := range task.Labels {
		switch {
		case strings.HasPrefix(label, phaseLabelPrefix):
			if p, err := backend.ParsePhase(strings.TrimPrefix(label, phaseLabelPrefix)); err == nil {
				remote.Phase = backend.PhasePtr(p)
			}
		case strings.HasPrefix(label, progressLabelPrefix):
			if n, err := strconv.Atoi(strings.TrimPrefix(label, progressLabelPrefix)); err == nil {
				remote.Progress = backend.IntPtr(backend.ClampProgress(n))
			}
		}
	}

	return remote
}
