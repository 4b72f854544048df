package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels of the general counter.
const (
	ResourcesCreated     = "resources_created_total"
	ResourcesUpdated     = "resources_updated_total"
	ResourceFileReplaced = "resource_files_replaced_total"
	ResourcesDeleted     = "resources_deleted_total"
	ResourceDownloads    = "resource_downloads_total"
	OrphanedFiles        = "resource_orphaned_files_total"
	MembershipsCreated   = "memberships_created_total"
	AppRequests          = "app_requests_total"
)

func NewCounter() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studybuddy",
			Name:      "general_counters",
		},
		[]string{"result"})
}
