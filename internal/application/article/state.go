package article

import (
	"context"
	"fmt"
)

// State 生成流程状态
type State string

const (
	StateValidating     State = "validating"
	StateResearch       State = "research_optional"
	StateOutlinePending State = "outline_pending"
	StateContentPending State = "content_pending"
	StateAssembling     State = "assembling"
	StateAssembled      State = "assembled"
	StateFailed         State = "failed"
)

// 状态只能单向推进；除 assembled 外任一状态都可以进入 failed
var transitions = map[State]State{
	StateValidating:     StateResearch,
	StateResearch:       StateOutlinePending,
	StateOutlinePending: StateContentPending,
	StateContentPending: StateAssembling,
	StateAssembling:     StateAssembled,
}

// CanTransitionTo 判断状态转换是否合法
func (s State) CanTransitionTo(next State) bool {
	if next == StateFailed {
		return s != StateAssembled && s != StateFailed
	}
	return transitions[s] == next
}

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s == StateAssembled || s == StateFailed
}

// Progress 状态对应的任务进度百分比
func (s State) Progress() int {
	switch s {
	case StateValidating:
		return 5
	case StateResearch:
		return 15
	case StateOutlinePending:
		return 30
	case StateContentPending:
		return 55
	case StateAssembling:
		return 90
	case StateAssembled:
		return 100
	default:
		return 0
	}
}

// Observer 接收状态转换通知，不应阻塞
type Observer func(ctx context.Context, state State)

// run 单次生成的状态机
type run struct {
	state    State
	observer Observer
}

func newRun(ctx context.Context, observer Observer) *run {
	r := &run{state: StateValidating, observer: observer}
	r.notify(ctx)
	return r
}

func (r *run) advance(ctx context.Context, next State) error {
	if !r.state.CanTransitionTo(next) {
		return fmt.Errorf("illegal generation state transition %s -> %s", r.state, next)
	}
	r.state = next
	r.notify(ctx)
	return nil
}

func (r *run) fail(ctx context.Context) {
	if r.state.CanTransitionTo(StateFailed) {
		r.state = StateFailed
		r.notify(ctx)
	}
}

func (r *run) notify(ctx context.Context) {
	if r.observer != nil {
		r.observer(ctx, r.state)
	}
}
