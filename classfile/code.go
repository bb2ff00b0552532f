package classfile

import "fmt"

// Entry pairs a label with the instruction that starts at it. Every
// instruction boundary gets a label, so Entries doubles as the label
// definition order.
type Entry struct {
	Label Label
	Insn  Insn
}

// ExceptionHandler is one try/catch range over the decoded instruction
// stream. Start is inclusive, End exclusive; End may be the end-of-code
// label, one past the last instruction. CatchType is "" for catch-all
// (finally) handlers.
type ExceptionHandler struct {
	Start     Label
	End       Label
	Handler   Label
	CatchType string
}

func (h ExceptionHandler) String() string {
	catch := h.CatchType
	if catch == "" {
		catch = "any"
	}
	return fmt.Sprintf("try %s..%s catch %s -> %s", h.Start, h.End, catch, h.Handler)
}

// LineNumber maps a label to a source line.
type LineNumber struct {
	Start Label
	Line  uint16
}

// LocalVariable is one LocalVariableTable entry, with its bytecode range
// rewritten to labels.
type LocalVariable struct {
	Start      Label
	End        Label
	Name       string
	Descriptor string
	Index      uint16
}

// Code is a decoded Code attribute: the instruction stream with all offsets
// replaced by labels, plus the tables that referenced those offsets.
type Code struct {
	MaxStack  uint16
	MaxLocals uint16

	Entries  []Entry
	Handlers []ExceptionHandler

	// EndLabel marks the position just past the last instruction. Handler
	// ranges may end here; jumps may not target it.
	EndLabel Label

	LineNumbers []LineNumber
	Locals      []LocalVariable

	// Attrs holds nested Code attributes the decoder has no structured
	// form for.
	Attrs []Attribute
}

// Labels returns the number of labels the decoder allocated for this method.
// Labels are dense, so every Label in the Code is < Labels().
func (c *Code) Labels() int {
	return int(c.EndLabel) + 1
}

// InsnAt returns the instruction starting at the given label, or nil if the
// label is the end-of-code label or not an instruction boundary.
func (c *Code) InsnAt(l Label) Insn {
	for _, e := range c.Entries {
		if e.Label == l {
			return e.Insn
		}
	}
	return nil
}
