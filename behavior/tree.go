// Package behavior implements the behavior trees that drive agent decisions.
//
// A tree is built once per agent from its Personality and evaluated against a
// fresh Context every decision. Action leaves look up a named suggestion
// in the Context; the agent supplies those callbacks and they are the only
// place a decision touches the snake.
package behavior

import (
	"fmt"
	"math/rand"
	"strings"
)

type Kind uint8

const (
	Selector Kind = iota
	Sequence
	Condition
	Action
)

func (k Kind) String() string {
	switch k {
	case Selector:
		return "selector"
	case Sequence:
		return "sequence"
	case Condition:
		return "condition"
	case Action:
		return "action"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is a tree node. Which fields matter depends on Kind:
// Selector and Sequence use Children, Condition uses Check, and Action uses
// Suggestion to pick a callback from the Context.
type Node struct {
	Kind       Kind
	Name       string
	Children   []*Node
	Check      func(*Context) bool
	Suggestion string
}

func NewSelector(name string, children ...*Node) *Node {
	return &Node{Kind: Selector, Name: name, Children: children}
}

func NewSequence(name string, children ...*Node) *Node {
	return &Node{Kind: Sequence, Name: name, Children: children}
}

func NewCondition(name string, check func(*Context) bool) *Node {
	return &Node{Kind: Condition, Name: name, Check: check}
}

func NewAction(name, suggestion string) *Node {
	return &Node{Kind: Action, Name: name, Suggestion: suggestion}
}

// Execute evaluates the node. Selector stops at the first child that succeeds,
// Sequence stops at the first child that fails.
func (n *Node) Execute(ctx *Context) bool {
	return n.exec(ctx, nil)
}

func (n *Node) exec(ctx *Context, fired *string) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case Selector:
		for _, c := range n.Children {
			if c.exec(ctx, fired) {
				return true
			}
		}
		return false
	case Sequence:
		for _, c := range n.Children {
			if !c.exec(ctx, fired) {
				return false
			}
		}
		return true
	case Condition:
		return n.Check != nil && ctx != nil && n.Check(ctx)
	case Action:
		if ctx == nil {
			return false
		}
		fn, ok := ctx.Suggestions[n.Suggestion]
		if !ok || fn == nil {
			return false
		}
		if fn() {
			if fired != nil {
				*fired = n.Suggestion
			}
			return true
		}
		return false
	}
	return false
}

// Tree is a root node plus the personality it was built for.
type Tree struct {
	Root        *Node
	Personality Personality
}

// Run executes the tree and reports which suggestion produced the decision.
// action is empty when nothing succeeded.
func (t *Tree) Run(ctx *Context) (ok bool, action string) {
	if t == nil || t.Root == nil {
		return false, ""
	}
	ok = t.Root.exec(ctx, &action)
	if !ok {
		action = ""
	}
	return ok, action
}

// String renders the tree shape, one node per line.
func (t *Tree) String() string {
	var b strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fmt.Fprintf(&b, "%s%s %q\n", strings.Repeat("  ", depth), n.Kind, n.Name)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if t != nil && t.Root != nil {
		walk(t.Root, 0)
	}
	return b.String()
}

// Personality selects a fixed tree shape.
type Personality uint8

const (
	Aggressive Personality = iota
	Cautious
	Balanced
	Random
)

var personalityNames = [...]string{
	Aggressive: "aggressive",
	Cautious:   "cautious",
	Balanced:   "balanced",
	Random:     "random",
}

// Personalities lists every personality in declaration order.
var Personalities = []Personality{Aggressive, Cautious, Balanced, Random}

func (p Personality) String() string {
	if int(p) >= len(personalityNames) {
		return fmt.Sprintf("personality(%d)", uint8(p))
	}
	return personalityNames[p]
}

func ParsePersonality(s string) (Personality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range personalityNames {
		if name == s {
			return Personality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown personality %q", s)
}

// ForPersonality builds the tree for p. rng is only consulted for Random,
// whose branch order is shuffled once here.
func ForPersonality(p Personality, rng *rand.Rand) *Tree {
	var root *Node
	switch p {
	case Aggressive:
		root = NewSelector("aggressive",
			NewSequence("seek food",
				NewCondition("food nearby", (*Context).FoodNearby),
				NewAction("move to food", MoveToFood),
			),
			NewSequence("avoid danger",
				NewCondition("danger ahead", dangerAhead),
				NewAction("escape danger", EscapeDanger),
			),
			NewAction("explore", Explore),
		)
	case Cautious:
		root = NewSelector("cautious",
			NewSequence("avoid danger",
				NewCondition("any danger", (*Context).DangerNearby),
				NewAction("escape danger", EscapeDanger),
			),
			NewSequence("seek food safe",
				NewCondition("food safe", (*Context).FoodSafe),
				NewAction("move to food", MoveToFood),
			),
			NewAction("cautious explore", SafeExplore),
		)
	case Balanced:
		root = NewSelector("balanced",
			NewSequence("seek food",
				NewCondition("food available", (*Context).FoodAvailable),
				NewAction("move to food", MoveToFood),
			),
			NewSequence("avoid danger",
				NewCondition("danger ahead", dangerAhead),
				NewAction("escape danger", EscapeDanger),
			),
			NewAction("explore", Explore),
		)
	case Random:
		children := []*Node{
			NewAction("random move", RandomMove),
			NewAction("explore", Explore),
		}
		if rng != nil {
			rng.Shuffle(len(children), func(i, j int) { children[i], children[j] = children[j], children[i] })
		}
		root = NewSelector("random", children...)
	default:
		return ForPersonality(Balanced, rng)
	}
	return &Tree{Root: root, Personality: p}
}

func dangerAhead(c *Context) bool { return c.DangerAhead }
