// Package scpi builds the fire-and-forget ASCII commands understood by
// KORAD-style bench power supplies.
package scpi

// Kind identifies a power supply command.
type Kind uint8

const (
	KindOutputOff Kind = iota
	KindOutputOn
	KindSetCurrent
	KindSetVoltage
)

func (k Kind) String() string {
	switch k {
	case KindOutputOff:
		return "output-off"
	case KindOutputOn:
		return "output-on"
	case KindSetCurrent:
		return "set-current"
	case KindSetVoltage:
		return "set-voltage"
	}
	return "unknown"
}

// Command is an immutable power supply command. Value is amps for
// KindSetCurrent, volts for KindSetVoltage and unused otherwise.
type Command struct {
	kind  Kind
	value float64
}

func OutputOn() Command {
	return Command{kind: KindOutputOn}
}

func OutputOff() Command {
	return Command{kind: KindOutputOff}
}

func SetCurrent(amps float64) Command {
	return Command{kind: KindSetCurrent, value: amps}
}

func SetVoltage(volts float64) Command {
	return Command{kind: KindSetVoltage, value: volts}
}

func (c Command) Kind() Kind {
	return c.kind
}

func (c Command) Value() float64 {
	return c.value
}

// AppendText appends the wire text of c to dst. No terminator is added.
func (c Command) AppendText(dst []byte) []byte {
	switch c.kind {
	case KindOutputOff:
		return append(dst, "OUT0"...)
	case KindOutputOn:
		return append(dst, "OUT1"...)
	case KindSetCurrent:
		return AppendFixed2dp(append(dst, "ISET1:"...), c.value)
	case KindSetVoltage:
		return AppendFixed2dp(append(dst, "VSET1:"...), c.value)
	}
	return dst
}

// String returns the wire text of c.
func (c Command) String() string {
	var buf [32]byte
	return string(c.AppendText(buf[:0]))
}
