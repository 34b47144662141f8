package output

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// CollectionTree renders the collection graph under root. A node reached a
// second time is shown once more, marked, without its children, so cycles
// and shared nodes print finitely. With members set, each node also lists
// its direct entries.
func CollectionTree(root *types.Collection, members bool) string {
	tree := gotree.New(nodeLabel(root))
	seen := map[*types.Collection]bool{root: true}
	addChildren(tree, root, members, seen)
	return tree.Print()
}

func addChildren(branch gotree.Tree, c *types.Collection, members bool, seen map[*types.Collection]bool) {
	if members && !c.IsMaster() {
		for _, e := range c.Members() {
			branch.Add(TerminalFormatAsDim(e.Name))
		}
	}
	for _, child := range c.Children() {
		if seen[child] {
			branch.Add(nodeLabel(child) + " " + TerminalFormatAsDim("(see above)"))
			continue
		}
		seen[child] = true
		addChildren(branch.Add(nodeLabel(child)), child, members, seen)
	}
}

func nodeLabel(c *types.Collection) string {
	n := c.Len()
	return fmt.Sprintf("%s [%s, %d %s]", c.Name(), c.Kind(), n, Plural(n, "entry", "entries"))
}
