package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forge-sre/forge/pkg/activity"
	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/config"
)

const (
	completedWorkRingSize  = 50
	validationRingSize     = 20
	scaleEventLogSize      = 100
)

// pendingValidation is the single-slot hand-off between a scale action and
// RunPendingValidation. It is read and cleared under the coordinator's
// lock, and the validation probe it triggers (which may block on network
// I/O) then runs outside the lock so it never blocks a subsequent Tick.
type pendingValidation struct {
	triggerEvent   string
	triggerReplica string
}

// Coordinator is the Cluster Coordinator (spec §4.G). It owns a single
// mutex guarding all of its state; Tick is purely CPU-bound under that
// lock and never calls an adapter — post-scale validation is handed off
// to RunPendingValidation, which runs outside the lock.
type Coordinator struct {
	mu sync.Mutex

	clusterID     string
	replicas      map[string]*Replica
	workQueue     []*WorkItem
	completedWork []WorkItem
	scaleEvents   []ScaleEvent
	knownServices []string

	lastScaleTime time.Time
	pending       *pendingValidation
	validations   []ValidationRecord

	rng *rand.Rand

	tuning     *config.TuningConfig
	validation adapters.ValidationAdapter
	activityLog *activity.Log

	log *slog.Logger
}

// New constructs a Coordinator with a single running "forge-primary"
// replica, matching the original's single-instance bootstrap.
func New(tuning *config.TuningConfig, validation adapters.ValidationAdapter, activityLog *activity.Log) *Coordinator {
	c := &Coordinator{
		clusterID:   uuid.New().String(),
		replicas:    make(map[string]*Replica),
		tuning:      tuning,
		validation:  validation,
		activityLog: activityLog,
		rng:         rand.New(rand.NewPCG(1, 2)),
		log:         slog.Default().With("component", "cluster"),
	}
	c.spawnReplicaLocked(primaryReplicaName, "bootstrap")
	return c
}

func (c *Coordinator) spawnReplicaLocked(name, reason string) *Replica {
	now := time.Now()
	r := &Replica{
		ID:            uuid.New().String(),
		Name:          name,
		Status:        "running",
		SpawnedAt:     now,
		LastHeartbeat: now,
	}
	c.replicas[r.ID] = r
	c.scaleEvents = append(c.scaleEvents, ScaleEvent{
		Event:         "spawn",
		ReplicaID:     r.ID,
		Name:          r.Name,
		Timestamp:     now,
		Reason:        reason,
		TotalReplicas: len(c.replicas),
	})
	c.trimScaleEventsLocked()
	if c.activityLog != nil {
		c.activityLog.Add("cluster.scale", "cluster", fmt.Sprintf("spawned replica %s", r.Name), reason, nil)
	}
	return r
}

func (c *Coordinator) killReplicaLocked(id, reason string) {
	r, ok := c.replicas[id]
	if !ok {
		return
	}
	delete(c.replicas, id)
	c.scaleEvents = append(c.scaleEvents, ScaleEvent{
		Event:         "kill",
		ReplicaID:     r.ID,
		Name:          r.Name,
		Timestamp:     time.Now(),
		Reason:        reason,
		TotalReplicas: len(c.replicas),
	})
	c.trimScaleEventsLocked()
	if c.activityLog != nil {
		c.activityLog.Add("cluster.scale", "cluster", fmt.Sprintf("killed replica %s", r.Name), reason, nil)
	}
}

func (c *Coordinator) trimScaleEventsLocked() {
	if len(c.scaleEvents) > scaleEventLogSize {
		c.scaleEvents = c.scaleEvents[len(c.scaleEvents)-scaleEventLogSize:]
	}
}

// SetServices replaces the known-service list and rebalances partitions
// across the currently running replicas.
func (c *Coordinator) SetServices(services []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knownServices = append([]string(nil), services...)
	c.rebalancePartitionsLocked()
}

// rebalancePartitionsLocked assigns knownServices round-robin across
// running replicas so no replica carries more than one extra service than
// any other (fairness: max-min assignment difference <= 1).
func (c *Coordinator) rebalancePartitionsLocked() {
	ids := c.runningReplicaIDsLocked()
	for _, id := range ids {
		c.replicas[id].AssignedServices = nil
	}
	if len(ids) == 0 {
		return
	}
	for i, svc := range c.knownServices {
		id := ids[i%len(ids)]
		c.replicas[id].AssignedServices = append(c.replicas[id].AssignedServices, svc)
	}
}

func (c *Coordinator) runningReplicaIDsLocked() []string {
	ids := make([]string, 0, len(c.replicas))
	for id, r := range c.replicas {
		if r.Status == "running" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Enqueue adds one work item in pending state to the FIFO queue.
func (c *Coordinator) Enqueue(serviceName, taskType string, priority int) WorkItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := &WorkItem{
		ID:          uuid.New().String(),
		ServiceName: serviceName,
		TaskType:    taskType,
		Priority:    priority,
		EnqueuedAt:  time.Now(),
		Status:      "pending",
	}
	c.workQueue = append(c.workQueue, item)
	return *item
}

// CompleteWork transitions a processing work item to completed or failed,
// exactly once — a second call for the same id is a no-op.
func (c *Coordinator) CompleteWork(id string, success bool) (WorkItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.workQueue {
		if item.ID != id || item.Status != "processing" {
			continue
		}
		if success {
			item.Status = "completed"
		} else {
			item.Status = "failed"
		}
		if r, ok := c.replicas[item.AssignedTo]; ok {
			r.AnalysesCompleted++
			r.CurrentTask = ""
		}
		done := *item
		c.completedWork = append(c.completedWork, done)
		if len(c.completedWork) > completedWorkRingSize {
			c.completedWork = c.completedWork[len(c.completedWork)-completedWorkRingSize:]
		}
		c.workQueue = append(c.workQueue[:i], c.workQueue[i+1:]...)
		return done, true
	}
	return WorkItem{}, false
}

// dispatchLocked assigns the earliest pending item to each idle running
// replica, preserving FIFO order.
func (c *Coordinator) dispatchLocked() {
	idle := make([]*Replica, 0)
	for _, id := range c.runningReplicaIDsLocked() {
		r := c.replicas[id]
		if r.CurrentTask == "" {
			idle = append(idle, r)
		}
	}
	for _, r := range idle {
		for _, item := range c.workQueue {
			if item.Status != "pending" {
				continue
			}
			item.Status = "processing"
			item.AssignedTo = r.ID
			r.CurrentTask = item.ID
			break
		}
	}
}

func (c *Coordinator) queueDepthLocked() int {
	n := 0
	for _, item := range c.workQueue {
		if item.Status == "pending" {
			n++
		}
	}
	return n
}

// Tick runs one MAPE-K iteration: Monitor (simulate per-replica load),
// Analyze (decide scale direction), Plan+Execute (spawn/kill, rebalance),
// then dispatch queued work to idle replicas. It never calls an adapter —
// a scale decision only arms the pending-validation slot for
// RunPendingValidation to pick up afterward.
func (c *Coordinator) Tick() TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked()
}

func (c *Coordinator) tickLocked() TickResult {
	now := time.Now()

	// Monitor: simulate load per replica as a function of its assignment.
	var totalCPU, totalMem float64
	for _, r := range c.replicas {
		load := float64(len(r.AssignedServices)) / float64(maxInt(c.tuning.MaxServicesPerAgent, 1))
		busy := 0.0
		if r.CurrentTask != "" {
			busy = 0.25
		}
		noise := (c.rng.Float64() - 0.5) * 0.1
		r.CPULoad = clamp01(0.15+0.6*load+busy+noise) * 100
		r.MemoryMB = 128 + 384*clamp01(load) + c.rng.Float64()*32
		r.LastHeartbeat = now
		totalCPU += r.CPULoad
		totalMem += r.MemoryMB
	}

	replicaCount := len(c.replicas)
	queueDepth := c.queueDepthLocked()
	servicesPerAgent := 0.0
	avgCPU := 0.0
	avgMem := 0.0
	if replicaCount > 0 {
		servicesPerAgent = float64(len(c.knownServices)) / float64(replicaCount)
		avgCPU = totalCPU / float64(replicaCount)
		avgMem = totalMem / float64(replicaCount)
	}
	metrics := TickMetrics{
		QueueDepth:       queueDepth,
		ReplicaCount:     replicaCount,
		ServicesPerAgent: servicesPerAgent,
		AvgCPU:           avgCPU,
		AvgMemoryMB:      avgMem,
	}

	action := "none"
	cooldownOK := now.Sub(c.lastScaleTime) > c.tuning.ScaleCooldown()

	switch {
	case cooldownOK && replicaCount < c.tuning.MaxReplicas &&
		(queueDepth > c.tuning.QueueHighWatermark ||
			servicesPerAgent > float64(c.tuning.MaxServicesPerAgent) ||
			avgCPU > 80.0):
		reason := scaleUpReason(queueDepth, servicesPerAgent, avgCPU, c.tuning)
		r := c.spawnReplicaLocked(fmt.Sprintf("forge-replica-%d", replicaCount+1), reason)
		c.rebalancePartitionsLocked()
		c.lastScaleTime = now
		c.pending = &pendingValidation{triggerEvent: "scale_up", triggerReplica: r.Name}
		action = "scale_up"

	case cooldownOK && replicaCount > c.tuning.MinReplicas && queueDepth < c.tuning.QueueLowWatermark:
		victim := c.selectScaleDownVictimLocked()
		if victim != nil {
			name := victim.Name
			c.killReplicaLocked(victim.ID, "queue depth below low watermark")
			c.rebalancePartitionsLocked()
			c.lastScaleTime = now
			c.pending = &pendingValidation{triggerEvent: "scale_down", triggerReplica: name}
			action = "scale_down"
		}
	}

	c.dispatchLocked()

	return TickResult{
		Timestamp: now,
		Metrics:   metrics,
		Action:    action,
		Replicas:  c.snapshotReplicasLocked(),
	}
}

func scaleUpReason(queueDepth int, servicesPerAgent, avgCPU float64, t *config.TuningConfig) string {
	switch {
	case queueDepth > t.QueueHighWatermark:
		return fmt.Sprintf("queue_depth=%d > high_watermark=%d", queueDepth, t.QueueHighWatermark)
	case servicesPerAgent > float64(t.MaxServicesPerAgent):
		return fmt.Sprintf("services_per_agent=%.1f > max=%d", servicesPerAgent, t.MaxServicesPerAgent)
	default:
		return fmt.Sprintf("avg_cpu=%.1f > 80.0", avgCPU)
	}
}

// selectScaleDownVictimLocked picks the running replica carrying the fewest
// assigned services, excluding the primary — the primary is never a
// scale-down candidate regardless of load.
func (c *Coordinator) selectScaleDownVictimLocked() *Replica {
	var victim *Replica
	for _, id := range c.runningReplicaIDsLocked() {
		r := c.replicas[id]
		if r.Name == primaryReplicaName {
			continue
		}
		if victim == nil || len(r.AssignedServices) < len(victim.AssignedServices) {
			victim = r
		}
	}
	return victim
}

func (c *Coordinator) snapshotReplicasLocked() []Replica {
	ids := make([]string, 0, len(c.replicas))
	for id := range c.replicas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Replica, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.replicas[id])
	}
	return out
}

// RunPendingValidation drains the single pending-validation slot (if any)
// and invokes the ValidationAdapter outside the coordinator's lock, then
// pushes the outcome into the last-validation-results ring.
func (c *Coordinator) RunPendingValidation(ctx context.Context) (*ValidationRecord, error) {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p == nil {
		return nil, nil
	}
	return c.runValidation(ctx, p.triggerEvent, p.triggerReplica)
}

// RunManualValidation runs a validation probe immediately, independent of
// any pending scale event (spec §6's `POST /api/cluster/validate`).
func (c *Coordinator) RunManualValidation(ctx context.Context) (*ValidationRecord, error) {
	return c.runValidation(ctx, "manual", "api-manual")
}

func (c *Coordinator) runValidation(ctx context.Context, triggerEvent, triggerReplica string) (*ValidationRecord, error) {
	result, err := c.validation.NetworkAfterScale(ctx, triggerEvent, triggerReplica)
	if err != nil {
		return nil, fmt.Errorf("cluster: validation: %w", err)
	}

	rec := ValidationRecord{
		TriggerEvent:   triggerEvent,
		TriggerReplica: triggerReplica,
		Timestamp:      time.Now(),
		PrePhaseP99Ms:  result.Pre.P99LatencyMs,
		PostPhaseP99Ms: result.Post.P99LatencyMs,
		NetworkStable:  result.NetworkStable,
	}
	if result.NetworkStable {
		rec.Status = "passed"
	} else {
		rec.Status = "failed"
	}

	c.mu.Lock()
	c.validations = append(c.validations, rec)
	if len(c.validations) > validationRingSize {
		c.validations = c.validations[len(c.validations)-validationRingSize:]
	}
	c.mu.Unlock()

	if c.activityLog != nil {
		c.activityLog.Add("cluster.validation", "cluster",
			fmt.Sprintf("validation %s for %s", rec.Status, triggerReplica),
			triggerEvent, nil)
	}
	return &rec, nil
}

// ErrMaxReplicas and ErrMinReplicas are returned by ManualScale when a
// manual scale request would violate the replica-count bounds.
var (
	ErrMaxReplicas = fmt.Errorf("cluster: already at max replicas")
	ErrMinReplicas = fmt.Errorf("cluster: cannot scale below min replicas")
)

// ManualScale scales the cluster by exactly one replica in the given
// direction ("up"|"down"), bypassing the cooldown — the demo/operator
// escape hatch alongside the automatic MAPE-K decision (spec §6
// `POST /api/cluster/scale`). Arms the same pending-validation hand-off a
// tick-driven scale would.
func (c *Coordinator) ManualScale(direction, reason string) (ScaleEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch direction {
	case "up":
		if len(c.replicas) >= c.tuning.MaxReplicas {
			return ScaleEvent{}, ErrMaxReplicas
		}
		r := c.spawnReplicaLocked(fmt.Sprintf("forge-replica-%d", len(c.replicas)+1), "manual: "+reason)
		c.rebalancePartitionsLocked()
		c.lastScaleTime = time.Now()
		c.pending = &pendingValidation{triggerEvent: "manual_scale_up", triggerReplica: r.Name}
		return c.scaleEvents[len(c.scaleEvents)-1], nil

	case "down":
		if len(c.replicas) <= c.tuning.MinReplicas {
			return ScaleEvent{}, ErrMinReplicas
		}
		victim := c.selectScaleDownVictimLocked()
		if victim == nil {
			return ScaleEvent{}, ErrMinReplicas
		}
		c.killReplicaLocked(victim.ID, "manual: "+reason)
		c.rebalancePartitionsLocked()
		c.lastScaleTime = time.Now()
		c.pending = &pendingValidation{triggerEvent: "manual_scale_down", triggerReplica: victim.Name}
		return c.scaleEvents[len(c.scaleEvents)-1], nil

	default:
		return ScaleEvent{}, fmt.Errorf("cluster: direction must be \"up\" or \"down\", got %q", direction)
	}
}

// SimulateLoad is the demo-bypass entry point (spec §4.G): it enqueues
// count synthetic work items round-robin across known services, then runs
// up to min(count, 4) ticks back-to-back with the cooldown cleared between
// each, so a single call can demonstrate a full scale-up reaction without
// waiting out the real cooldown window. A count below 1 changes nothing.
func (c *Coordinator) SimulateLoad(count int) SimulateLoadResult {
	if count < 1 {
		c.mu.Lock()
		defer c.mu.Unlock()
		return SimulateLoadResult{FinalReplicas: len(c.replicas)}
	}

	c.mu.Lock()
	services := c.knownServices
	if len(services) == 0 {
		services = []string{"api-gateway", "order-service", "payment-service"}
	}
	for i := 0; i < count; i++ {
		item := &WorkItem{
			ID:          uuid.New().String(),
			ServiceName: services[i%len(services)],
			TaskType:    "analyze",
			Priority:    1,
			EnqueuedAt:  time.Now(),
			Status:      "pending",
		}
		c.workQueue = append(c.workQueue, item)
	}
	c.mu.Unlock()

	ticks := count
	if ticks > 4 {
		ticks = 4
	}

	result := SimulateLoadResult{ItemsEnqueued: count}
	for i := 0; i < ticks; i++ {
		c.mu.Lock()
		c.lastScaleTime = time.Time{} // bypass cooldown for the simulation
		tick := c.tickLocked()
		c.mu.Unlock()

		if tick.Action != "none" {
			result.ScaleActions = append(result.ScaleActions, tick.Action)
		}
		result.LastTickResult = &tick
	}

	c.mu.Lock()
	result.FinalReplicas = len(c.replicas)
	c.mu.Unlock()
	return result
}

// GetStatus returns a full snapshot for the cluster status endpoint.
func (c *Coordinator) GetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, processing, completedAnalyses := 0, 0, 0
	for _, item := range c.workQueue {
		switch item.Status {
		case "pending":
			pending++
		case "processing":
			processing++
		}
	}
	for _, r := range c.replicas {
		completedAnalyses += r.AnalysesCompleted
	}

	servicesPerAgent := 0.0
	running := len(c.runningReplicaIDsLocked())
	if running > 0 {
		servicesPerAgent = float64(len(c.knownServices)) / float64(running)
	}

	var last *ValidationRecord
	if len(c.validations) > 0 {
		v := c.validations[len(c.validations)-1]
		last = &v
	}

	events := append([]ScaleEvent(nil), c.scaleEvents...)
	validations := append([]ValidationRecord(nil), c.validations...)

	return Status{
		ClusterID:           c.clusterID,
		TotalReplicas:       len(c.replicas),
		RunningReplicas:     running,
		PendingWorkItems:    pending,
		ProcessingWorkItems: processing,
		CompletedAnalyses:   completedAnalyses,
		TotalServices:       len(c.knownServices),
		ServicesPerAgent:    servicesPerAgent,
		Replicas:            c.snapshotReplicasLocked(),
		RecentScaleEvents:   events,
		ValidationResults:   validations,
		LastValidation:      last,
		Config: TuningSnapshot{
			MaxServicesPerAgent:  c.tuning.MaxServicesPerAgent,
			QueueHighWatermark:   c.tuning.QueueHighWatermark,
			QueueLowWatermark:    c.tuning.QueueLowWatermark,
			MaxReplicas:          c.tuning.MaxReplicas,
			MinReplicas:          c.tuning.MinReplicas,
			ScaleCooldownSeconds: c.tuning.ScaleCooldownSeconds,
		},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
