package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types. The set is closed: every consumer switches over all of them.
const (
	NodeLiteral      NodeType = "literal"     // "a", 1, true, null
	NodeIdentifier   NodeType = "identifier"  // name
	NodeArray        NodeType = "array"       // [a, b]
	NodeObject       NodeType = "object"      // {k: v}
	NodeConditional  NodeType = "conditional" // c ? a : b, c ?: b
	NodeUnary        NodeType = "unary"       // !a, -a, +a
	NodeBinary       NodeType = "binary"      // a + b, a[b]
	NodeFunctionCall NodeType = "call"        // t.name, t.name(args), name(args)
)

// Operators carried by unary and binary nodes.
const (
	OpNot      = "!"
	OpNegate   = "-"
	OpPlus     = "+"
	OpMinus    = "-"
	OpMultiply = "*"
	OpDivide   = "/"
	OpModulo   = "%"
	OpLess     = "<"
	OpLessEq   = "<="
	OpGreater  = ">"
	OpGreatEq  = ">="
	OpEqual    = "=="
	OpNotEqual = "!="
	OpAnd      = "&&"
	OpOr       = "||"
	OpIndex    = "[]"
)

// ObjectPair is one key/value entry of an object literal.
type ObjectPair struct {
	Key   *ASTNode
	Value *ASTNode
}

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Which fields are meaningful depends on Type:
//
//	literal      Value (nil, bool, float64 or string)
//	identifier   Name
//	array        Elements
//	object       Pairs
//	conditional  Condition, Then (nil for "c ?: b"), Else
//	unary        Operator, LHS
//	binary       Operator, LHS, RHS
//	call         LHS (receiver, nil for a bare call), Name, Arguments, Call
//
// Nodes own their children exclusively and are not modified after parsing.
type ASTNode struct {
	Type   NodeType
	Offset int
	Length int

	Value    interface{}
	Name     string
	Operator string

	LHS *ASTNode
	RHS *ASTNode

	Condition *ASTNode
	Then      *ASTNode
	Else      *ASTNode

	Elements  []*ASTNode
	Pairs     []ObjectPair
	Arguments []*ASTNode

	// Call distinguishes "t.name()" (true) from the member access "t.name".
	Call bool
}

// NewASTNode creates a new AST node of the specified type.
// Prefer NodeArena.Alloc when parsing to reduce per-node heap allocations.
func NewASTNode(nodeType NodeType, offset int) *ASTNode {
	return &ASTNode{
		Type:   nodeType,
		Offset: offset,
	}
}

// End returns the offset just past the node.
func (n *ASTNode) End() int {
	return n.Offset + n.Length
}

// IsElvis reports whether a conditional node omits its true branch.
func (n *ASTNode) IsElvis() bool {
	return n.Type == NodeConditional && n.Then == nil
}

// IsNullLiteral reports whether n is the literal null.
func (n *ASTNode) IsNullLiteral() bool {
	return n != nil && n.Type == NodeLiteral && n.Value == nil
}

// arenaChunkSize is the number of ASTNode values pre-allocated per arena chunk.
// Template expressions are short; most fit in a single chunk.
const arenaChunkSize = 32

// NodeArena is a bump-pointer allocator for ASTNode values.
//
// The arena MUST stay alive as long as any pointer returned by Alloc is
// reachable; nodes point into its chunks, so the GC keeps it alive through
// the Expression that owns the tree.
//
// NodeArena is NOT thread-safe. Each Parser owns its own arena.
type NodeArena struct {
	chunks [][]ASTNode
	pos    int
}

// NewNodeArena allocates an arena pre-warmed with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{
		chunks: [][]ASTNode{make([]ASTNode, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued ASTNode inside the arena with
// Type and Offset set.
func (a *NodeArena) Alloc(nodeType NodeType, offset int) *ASTNode {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]ASTNode, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = nodeType
	n.Offset = offset
	return n
}

// String returns the compact source form of the node.
func (n *ASTNode) String() string {
	return n.Format(false)
}

// Walk visits n and its children depth-first, in source order. Returning
// false from fn skips the children of that node.
func Walk(n *ASTNode, fn func(*ASTNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n.Type {
	case NodeArray:
		for _, el := range n.Elements {
			Walk(el, fn)
		}
	case NodeObject:
		for _, p := range n.Pairs {
			Walk(p.Key, fn)
			Walk(p.Value, fn)
		}
	case NodeConditional:
		Walk(n.Condition, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case NodeUnary:
		Walk(n.LHS, fn)
	case NodeBinary:
		Walk(n.LHS, fn)
		Walk(n.RHS, fn)
	case NodeFunctionCall:
		Walk(n.LHS, fn)
		for _, arg := range n.Arguments {
			Walk(arg, fn)
		}
	}
}

// Equal reports whether a and b are structurally equal, ignoring source
// positions.
func Equal(a, b *ASTNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case NodeLiteral:
		return a.Value == b.Value
	case NodeIdentifier:
		return a.Name == b.Name
	case NodeArray:
		return equalNodes(a.Elements, b.Elements)
	case NodeObject:
		if len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for i := range a.Pairs {
			if !Equal(a.Pairs[i].Key, b.Pairs[i].Key) || !Equal(a.Pairs[i].Value, b.Pairs[i].Value) {
				return false
			}
		}
		return true
	case NodeConditional:
		return Equal(a.Condition, b.Condition) && Equal(a.Then, b.Then) && Equal(a.Else, b.Else)
	case NodeUnary:
		return a.Operator == b.Operator && Equal(a.LHS, b.LHS)
	case NodeBinary:
		return a.Operator == b.Operator && Equal(a.LHS, b.LHS) && Equal(a.RHS, b.RHS)
	case NodeFunctionCall:
		return a.Name == b.Name && a.Call == b.Call && Equal(a.LHS, b.LHS) && equalNodes(a.Arguments, b.Arguments)
	default:
		return false
	}
}

func equalNodes(a, b []*ASTNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
