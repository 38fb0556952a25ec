package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/forge-sre/forge/pkg/adapters"
	"github.com/forge-sre/forge/pkg/ferrors"
)

type graphNode struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Type         string  `json:"type"`
	Team         string  `json:"team"`
	Criticality  string  `json:"criticality"`
	HealthScore  int     `json:"health_score"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	Color        string  `json:"color"`
	Val          int     `json:"val"`
}

type graphLink struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	RPM          float64 `json:"requests_per_min"`
}

func nodeColor(healthScore int) string {
	switch {
	case healthScore >= 80:
		return "green"
	case healthScore >= 50:
		return "amber"
	default:
		return "red"
	}
}

func nodeVal(criticality string) int {
	if criticality == "critical" {
		return 8
	}
	return 5
}

func toGraphNode(h adapters.ServiceHealth) graphNode {
	return graphNode{
		ID:           h.Name,
		Label:        h.Name,
		Type:         h.Type,
		Team:         h.Team,
		Criticality:  h.Criticality,
		HealthScore:  h.HealthScore,
		AvgLatencyMs: h.AvgLatencyMs,
		P99LatencyMs: h.P99LatencyMs,
		Color:        nodeColor(h.HealthScore),
		Val:          nodeVal(h.Criticality),
	}
}

func toGraphLink(e adapters.DependencyEdge) graphLink {
	return graphLink{
		Source:       e.Source,
		Target:       e.Target,
		AvgLatencyMs: e.AvgLatencyMs,
		P99LatencyMs: e.P99LatencyMs,
		RPM:          e.RequestsPerMin,
	}
}

// graphHandler handles GET /api/graph/: the full topology, streamed node by
// node and link by link as a single JSON document so a large topology
// doesn't force the client to wait for the whole payload to buffer.
func (s *Server) graphHandler(c *echo.Context) error {
	ctx := c.Request().Context()
	names, err := s.graph.ListServices(ctx)
	if err != nil {
		return ferrors.ToHTTP(err)
	}

	resp := c.Response()
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(http.StatusOK)

	fmt.Fprint(resp, `{"nodes":[`)
	for i, name := range names {
		health, err := s.graph.ServiceHealth(ctx, name)
		if err != nil {
			s.log.Warn("graph: service lookup failed", "service", name, "error", err)
			continue
		}
		if i > 0 {
			fmt.Fprint(resp, ",")
		}
		writeJSONChunk(resp, toGraphNode(health))
		resp.Flush()
	}
	fmt.Fprint(resp, `],"links":[`)

	first := true
	for _, name := range names {
		edges, err := s.graph.Dependencies(ctx, name)
		if err != nil {
			s.log.Warn("graph: dependency lookup failed", "service", name, "error", err)
			continue
		}
		for _, e := range edges {
			if !first {
				fmt.Fprint(resp, ",")
			}
			first = false
			writeJSONChunk(resp, toGraphLink(e))
			resp.Flush()
		}
	}
	fmt.Fprint(resp, `]}`)
	resp.Flush()
	return nil
}

// graphServiceHandler handles GET /api/graph/service/:name?hops=: an
// ego-graph centered on one service, within the given blast-radius hop
// count (default 1).
func (s *Server) graphServiceHandler(c *echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")
	hops := 1
	if h := c.QueryParam("hops"); h != "" {
		if n, err := strconv.Atoi(h); err == nil && n > 0 {
			hops = n
		}
	}

	members, err := s.graph.BlastRadius(ctx, name, hops)
	if err != nil {
		return ferrors.ToHTTP(err)
	}
	members = appendIfMissing(members, name)

	nodes, links, err := s.collectEgoGraph(ctx, members)
	if err != nil {
		return ferrors.ToHTTP(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"nodes":  nodes,
		"links":  links,
		"center": name,
	})
}

func (s *Server) collectEgoGraph(ctx context.Context, members []string) ([]graphNode, []graphLink, error) {
	nodes := make([]graphNode, 0, len(members))
	memberSet := make(map[string]bool, len(members))
	for _, name := range members {
		memberSet[name] = true
	}

	for _, name := range members {
		health, err := s.graph.ServiceHealth(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, toGraphNode(health))
	}

	var links []graphLink
	for _, name := range members {
		edges, err := s.graph.Dependencies(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range edges {
			if memberSet[e.Target] {
				links = append(links, toGraphLink(e))
			}
		}
	}
	return nodes, links, nil
}

func appendIfMissing(list []string, item string) []string {
	for _, v := range list {
		if v == item {
			return list
		}
	}
	return append(list, item)
}
