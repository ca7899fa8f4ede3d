package device

// A PortHandler serves one I/O port. A nil Read reads as 0 and a nil Write
// ignores the value.
type PortHandler struct {
	Read  func() uint8
	Write func(value uint8)
}

// PortTable maps absolute port numbers to their handlers. Ports that are not
// in the table read as 0 and ignore writes.
type PortTable map[uint8]PortHandler

// Read dispatches a read to the handler of a port.
func (t PortTable) Read(port uint8) uint8 {
	h, found := t[port]
	if !found || h.Read == nil {
		return 0
	}

	return h.Read()
}

// Write dispatches a write to the handler of a port.
func (t PortTable) Write(port uint8, value uint8) {
	h, found := t[port]
	if !found || h.Write == nil {
		return
	}

	h.Write(value)
}
