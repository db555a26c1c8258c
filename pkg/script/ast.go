// Package script implements the blobot command language: a small, restricted
// language of move/turn/wait calls with optional await and repeat blocks.
//
//	// square
//	repeat(4) {
//	    await moveForward(2);
//	    turnLeft(90)
//	}
//	wait(250)
//
// Scripts cannot reach anything except the five robot calls, so running
// user-authored text is safe.
package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Call names available to scripts.
const (
	CallMoveForward  = "moveForward"
	CallMoveBackward = "moveBackward"
	CallTurnLeft     = "turnLeft"
	CallTurnRight    = "turnRight"
	CallWait         = "wait"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a statement in a program.
type Node interface {
	Position() Pos
	format(b *strings.Builder, indent int)
}

// Call invokes one of the five robot calls with a numeric argument.
type Call struct {
	At    Pos
	Name  string
	Arg   float64
	Await bool
}

// Position implements Node.
func (c *Call) Position() Pos { return c.At }

func (c *Call) format(b *strings.Builder, indent int) {
	b.WriteString(strings.Repeat("    ", indent))
	if c.Await {
		b.WriteString("await ")
	}
	b.WriteString(c.Name)
	b.WriteByte('(')
	b.WriteString(strconv.FormatFloat(c.Arg, 'g', -1, 64))
	b.WriteString(");\n")
}

// Repeat runs Body Count times.
type Repeat struct {
	At    Pos
	Count int
	Body  []Node
}

// Position implements Node.
func (r *Repeat) Position() Pos { return r.At }

// hasCalls reports whether any call is nested in the body.
func (r *Repeat) hasCalls() bool {
	for _, n := range r.Body {
		switch n := n.(type) {
		case *Call:
			return true
		case *Repeat:
			if n.hasCalls() {
				return true
			}
		}
	}
	return false
}

func (r *Repeat) format(b *strings.Builder, indent int) {
	pad := strings.Repeat("    ", indent)
	fmt.Fprintf(b, "%srepeat(%d) {\n", pad, r.Count)
	for _, n := range r.Body {
		n.format(b, indent+1)
	}
	b.WriteString(pad)
	b.WriteString("}\n")
}

// Program is a parsed script.
type Program struct {
	Body []Node
}

// String returns the program in canonical form.
func (p *Program) String() string {
	var b strings.Builder
	for _, n := range p.Body {
		n.format(&b, 0)
	}
	return b.String()
}

// Steps returns how many calls a run of p executes, counting repeats.
func (p *Program) Steps() int {
	return countSteps(p.Body)
}

// stepCap bounds Steps so nested repeats cannot overflow.
const stepCap = math.MaxInt32

func countSteps(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		switch n := n.(type) {
		case *Call:
			total++
		case *Repeat:
			body := countSteps(n.Body)
			if body > 0 && n.Count > stepCap/body {
				return stepCap
			}
			total += n.Count * body
		}
		if total >= stepCap {
			return stepCap
		}
	}
	return total
}

// DefaultProgram is the example shown in a fresh editor.
const DefaultProgram = `// Program your robot here!
// Available commands:
//   moveForward(distance)  - move robot forward
//   moveBackward(distance) - move robot backward
//   turnLeft(degrees)      - turn robot left
//   turnRight(degrees)     - turn robot right
//   wait(milliseconds)     - wait before next command
// Put "await" before a move to wait until it has finished.
// repeat(n) { ... } runs a block n times.

moveForward(2);
wait(500);
turnRight(90);
wait(500);
moveForward(2);
`
