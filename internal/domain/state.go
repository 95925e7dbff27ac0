// File: internal/domain/state.go
package domain

// SessionState is the lifecycle state of one identity's browser attachment.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateFilling
	StateDone
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFilling:
		return "filling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Badge is the short operator-facing marker shown in status output.
func (s SessionState) Badge() string {
	switch s {
	case StateDisconnected:
		return "⚪ 未连接"
	case StateConnecting:
		return "🔗 连接中..."
	case StateConnected:
		return "✅ 已连接"
	case StateFilling:
		return "⚡ 填写中..."
	case StateDone:
		return "🎉 已完成"
	case StateFailed:
		return "❌ 失败"
	}
	return "?"
}

// Attached reports whether the state implies a live Session.
func (s SessionState) Attached() bool {
	return s == StateConnected || s == StateFilling || s == StateDone
}
