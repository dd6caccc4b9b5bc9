package mars

type MessageType int

const (
	_ MessageType = iota
	MsgDebug
	MsgError
	MsgDead
	MsgGameOver
	MsgLoad
	MsgClear
)

func (mt MessageType) String() string {
	switch mt {
	case MsgDebug:
		return "Debug"
	case MsgError:
		return "Error"
	case MsgDead:
		return "Dead"
	case MsgGameOver:
		return "Game Over"
	case MsgLoad:
		return "Load"
	case MsgClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// Message is a notification recorded by the core for the host.
// Warrior is -1 when the message is not about a warrior.
type Message struct {
	Type    MessageType
	Warrior int
	Process int
	Message string
}

func NewMessage(mt MessageType, warrior, process int, msg string) Message {
	return Message{
		Type:    mt,
		Warrior: warrior,
		Process: process,
		Message: msg,
	}
}
