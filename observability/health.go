package observability

import "context"

// HealthStatus is the state of a component or the service as a whole.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// Health is the result of checking one dependency.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth aggregates component results. Status is the worst status
// seen so far.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth starts an aggregate in the up state.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent records h and lowers the aggregate status if h is worse.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	if h.Status.rank() > sh.Status.rank() {
		sh.Status = h.Status
	}
}

// CheckPing runs ping and reports the component as up or down. A nil ping
// reports up.
func CheckPing(ctx context.Context, name string, ping func(context.Context) error) Health {
	h := Health{Name: name, Status: HealthStatusUp}
	if ping == nil {
		return h
	}
	if err := ping(ctx); err != nil {
		h.Status = HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
