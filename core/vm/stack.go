package vm

import "github.com/holiman/uint256"

// StackLimit is the maximum depth of the operand stack.
const StackLimit = 1024

// Stack is the operand stack: up to 1024 256-bit words. Values are held by
// value to keep them off the heap.
type Stack struct {
	data []uint256.Int
}

func newStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Data returns the underlying slice, bottom first.
func (st *Stack) Data() []uint256.Int { return st.data }

func (st *Stack) push(d *uint256.Int) {
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

// peek returns the current top of stack; handlers mutate it in place to
// store their result.
func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns the n'th item from the top (Back(0) is the top).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

func (st *Stack) swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

func (st *Stack) dup(n int) {
	st.push(&st.data[len(st.data)-n])
}

func (st *Stack) len() int { return len(st.data) }
