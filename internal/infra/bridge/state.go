package bridge

// State is the WhatsApp Web session state reported by the bridge.
type State int32

const (
	StateDisconnected State = iota
	StateQRPending
	StateAuthenticated
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateQRPending:
		return "qr_pending"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// next applies an inbound lifecycle event. Unknown events keep the state.
//
//	Disconnected -> QRPending -> Authenticated -> Ready <-> Disconnected
//
// A restored session may jump straight to Ready.
func next(cur State, event string) State {
	switch event {
	case EventQR:
		// also from Ready: a fresh QR means the session was logged out
		return StateQRPending
	case EventAuthenticated:
		if cur == StateReady {
			return cur
		}
		return StateAuthenticated
	case EventReady:
		return StateReady
	case EventAuthFailure, EventDisconnected:
		return StateDisconnected
	default:
		return cur
	}
}
