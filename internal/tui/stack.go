package tui

import tea "github.com/charmbracelet/bubbletea"

// ComponentStack is a stack of components.
type ComponentStack struct {
	components []Component
}

// NewComponentStack creates a new component stack.
func NewComponentStack(initial ...Component) *ComponentStack {
	return &ComponentStack{
		components: initial,
	}
}

// Push adds a component to the top of the stack.
func (s *ComponentStack) Push(c Component) {
	s.components = append(s.components, c)
}

// Pop removes the top component if there is more than one component on the
// stack.
func (s *ComponentStack) Pop() tea.Cmd {
	if len(s.components) <= 1 {
		return nil
	}
	top := s.components[len(s.components)-1]
	s.components = s.components[:len(s.components)-1]
	if leavable, ok := top.(Leavable); ok {
		return leavable.OnLeave()
	}
	return nil
}

// Top returns the component on top of the stack, or nil.
func (s *ComponentStack) Top() Component {
	if len(s.components) == 0 {
		return nil
	}
	return s.components[len(s.components)-1]
}

// Len returns the number of components on the stack.
func (s *ComponentStack) Len() int { return len(s.components) }

// IsConsumingInput returns true if any component on the stack is consuming input.
func (s *ComponentStack) IsConsumingInput() bool {
	for _, c := range s.components {
		if c.IsConsumingInput() {
			return true
		}
	}
	return false
}

// Update updates the top component on the stack.
func (s *ComponentStack) Update(msg tea.Msg) tea.Cmd {
	top := s.Top()
	if top == nil {
		return nil
	}
	newComp, cmd := top.Update(msg)
	if newComp != top {
		var leaveCmd tea.Cmd
		if leavable, ok := top.(Leavable); ok {
			leaveCmd = leavable.OnLeave()
		}
		s.components[len(s.components)-1] = newComp
		return tea.Batch(cmd, leaveCmd)
	}
	return cmd
}

// Broadcast delivers msg to every component, bottom first. It is used for
// messages like window resizes that all views need to see.
func (s *ComponentStack) Broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, c := range s.components {
		newComp, cmd := c.Update(msg)
		s.components[i] = newComp
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// View returns the view of the top component on the stack.
func (s *ComponentStack) View() string {
	top := s.Top()
	if top == nil {
		return ""
	}
	return top.View()
}
