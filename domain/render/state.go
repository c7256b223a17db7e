package render

// State is the lifecycle position of an offline renderer
type State int

const (
	StateIdle State = iota
	StateConfigured
	StateRendering
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfigured:
		return "configured"
	case StateRendering:
		return "rendering"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
