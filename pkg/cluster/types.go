// Package cluster implements the Cluster Coordinator (spec §4.G): a
// process-singleton MAPE-K loop that simulates horizontal scaling of
// agent replicas in response to work-queue pressure, with a decoupled
// post-scale network-validation hand-off.
package cluster

import "time"

// Replica is one simulated agent worker.
type Replica struct {
	ID                string    `json:"replica_id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"` // running|draining
	AssignedServices  []string  `json:"assigned_services"`
	AnalysesCompleted int       `json:"analyses_completed"`
	CurrentTask       string    `json:"current_task,omitempty"`
	SpawnedAt         time.Time `json:"spawned_at"`
	LastHeartbeat     time.Time `json:"last_heartbeat"`
	CPULoad           float64   `json:"cpu_load"`
	MemoryMB          float64   `json:"memory_mb"`
}

// WorkItem is one unit of agent work in the coordinator's queue.
type WorkItem struct {
	ID          string    `json:"id"`
	ServiceName string    `json:"service_name"`
	TaskType    string    `json:"task_type"` // analyze|generate_insights
	Priority    int       `json:"priority"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	Status      string    `json:"status"` // pending|processing|completed|failed
}

// ScaleEvent records one spawn or kill decision.
type ScaleEvent struct {
	Event         string    `json:"event"` // spawn|kill
	ReplicaID     string    `json:"replica_id"`
	Name          string    `json:"name"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        string    `json:"reason"`
	TotalReplicas int       `json:"total_replicas"`
}

// TickMetrics is the Monitor phase's snapshot for one tick.
type TickMetrics struct {
	QueueDepth       int     `json:"queue_depth"`
	ReplicaCount     int     `json:"replica_count"`
	ServicesPerAgent float64 `json:"services_per_agent"`
	AvgCPU           float64 `json:"avg_cpu"`
	AvgMemoryMB      float64 `json:"avg_memory_mb"`
}

// TickResult is the outcome of one MAPE-K tick, surfaced for API/UI visibility.
type TickResult struct {
	Timestamp time.Time   `json:"timestamp"`
	Metrics   TickMetrics `json:"metrics"`
	Action    string      `json:"action"`
	Replicas  []Replica   `json:"replicas"`
}

// ValidationRecord is one post-scale validation outcome, pushed into the
// last-20 ring.
type ValidationRecord struct {
	TriggerEvent   string    `json:"trigger_event"`
	TriggerReplica string    `json:"trigger_replica"`
	Status         string    `json:"status"` // passed|failed
	Timestamp      time.Time `json:"timestamp"`
	PrePhaseP99Ms  float64   `json:"phase_1_pre_scale_p99_ms"`
	PostPhaseP99Ms float64   `json:"phase_2_post_scale_p99_ms"`
	NetworkStable  bool      `json:"network_stable"`
}

// Status is the full cluster snapshot returned by GET /api/cluster/status.
type Status struct {
	ClusterID            string             `json:"cluster_id"`
	TotalReplicas        int                `json:"total_replicas"`
	RunningReplicas      int                `json:"running_replicas"`
	PendingWorkItems     int                `json:"pending_work_items"`
	ProcessingWorkItems  int                `json:"processing_work_items"`
	CompletedAnalyses    int                `json:"completed_analyses"`
	TotalServices        int                `json:"total_services"`
	ServicesPerAgent     float64            `json:"services_per_agent"`
	Replicas             []Replica          `json:"replicas"`
	RecentScaleEvents    []ScaleEvent       `json:"recent_scale_events"`
	ValidationResults    []ValidationRecord `json:"validation_results"`
	LastValidation       *ValidationRecord  `json:"last_validation,omitempty"`
	Config               TuningSnapshot     `json:"config"`
}

// TuningSnapshot exposes the active MAPE-K constants for the status endpoint.
type TuningSnapshot struct {
	MaxServicesPerAgent  int `json:"max_services_per_agent"`
	QueueHighWatermark   int `json:"queue_high_watermark"`
	QueueLowWatermark    int `json:"queue_low_watermark"`
	MaxReplicas          int `json:"max_replicas"`
	MinReplicas          int `json:"min_replicas"`
	ScaleCooldownSeconds int `json:"scale_cooldown_seconds"`
}

// SimulateLoadResult is the outcome of the demo-bypass SimulateLoad call.
type SimulateLoadResult struct {
	ItemsEnqueued  int          `json:"items_enqueued"`
	ScaleActions   []string     `json:"scale_actions"`
	FinalReplicas  int          `json:"final_replicas"`
	LastTickResult *TickResult  `json:"mape_k_result,omitempty"`
}

const primaryReplicaName = "forge-primary"
