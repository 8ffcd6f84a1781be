package sgf

// GameTree is one SGF tree: a node sequence plus variation subtrees.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node is a single SGF node, a property bag such as B[pd] or W[dd].
// Properties may repeat (AB[aa][bb]).
type Node struct {
	Properties map[string][]string
}

// SGF is the root element of an SGF document.
type SGF struct {
	Root *GameTree
}
