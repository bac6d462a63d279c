package chains

import (
	"fmt"
	"strings"

	"github.com/renderlens/renderlens/internal/models"
)

// maxListedProps caps how many changed prop names the trigger text lists
const maxListedProps = 3

// triggerText generates the human-readable trigger explanation for a chain.
// Priority: state change > props change > context-triggered update >
// initial mount > generic re-render.
func triggerText(root models.RenderEvent) string {
	name := root.ComponentName

	switch {
	case root.ChangedState:
		return fmt.Sprintf("state change in %s", name)

	case root.HasChangedProps():
		props := root.ChangedProps
		suffix := ""
		if len(props) > maxListedProps {
			props = props[:maxListedProps]
			suffix = ", ..."
		}
		return fmt.Sprintf("props changed on %s (%s%s)", name, strings.Join(props, ", "), suffix)

	case root.IsContextTriggered():
		return fmt.Sprintf("context or subscription update reaching %s", name)

	case root.Phase == models.PhaseInitial:
		return fmt.Sprintf("initial mount of %s", name)

	default:
		return fmt.Sprintf("re-render of %s", name)
	}
}
