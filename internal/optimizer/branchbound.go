// internal/optimizer/branchbound.go
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"time"
)

// BranchAndBound is an exact depth-first search over include/exclude
// decisions.
//
// Items are branched in descending objective density (objective per unit of
// price), ties broken by descending floor density and then by index, and the
// include branch is explored first. A node is pruned when
//   - the cheapest way to cover the still-uncovered groups exceeds the
//     remaining budget,
//   - the floor can no longer be reached even by the fractional relaxation,
//   - the fractional (Dantzig) bound on the objective cannot beat the
//     incumbent,
//   - when the objective is the spend itself, the largest subset sum still
//     reachable within the remaining budget cannot beat the incumbent.
//
// The incumbent is replaced only on strict improvement, so the first optimal
// selection met in branching order is the one returned. For identical input
// the result is therefore identical.
type BranchAndBound struct{}

// NewBranchAndBound returns the default exact strategy.
func NewBranchAndBound() *BranchAndBound { return &BranchAndBound{} }

const (
	// tieTolerance is the smallest objective gain treated as an improvement.
	tieTolerance = 1e-12
	// deadlineMask sets how often the deadline is polled (every 4096 nodes).
	deadlineMask = 4095
	noCover      = int64(math.MaxInt64)
	// reachWordLimit caps the reachable-spend table at 32 MiB.
	reachWordLimit = 1 << 22
)

var errAborted = errors.New("search aborted")

type bbEngine struct {
	ctx         context.Context
	useDeadline bool
	deadline    time.Time
	steps       int
	abortErr    error

	n        int
	budget   int64
	integral bool
	groups   int
	hasFloor bool
	floorMin float64
	hasCap   bool
	cap      int

	// Per-position data; position k holds item order[k].
	order  []int
	price  []int64
	obj    []float64
	floor  []float64
	group  []int
	capped []bool

	// suffixCover[g][k] is the cheapest price of a group-g item at a
	// position >= k.
	suffixCover [][]int64
	// suffixFloor[k] is the sum of floor coefficients at positions >= k.
	suffixFloor []float64
	// floorOrdered is true when the branching order is also a descending
	// floor-density order, enabling a fractional floor bound.
	floorOrdered bool
	// reach[k] is a bitset over [0, budget] of the spends reachable by
	// subsets of positions >= k. Nil unless the objective is the price.
	reach [][]uint64

	// Search state.
	x         []bool
	covered   []int
	uncovered int
	capUsed   int

	best    []bool
	bestObj float64
	found   bool
	nodes   int64
}

// Solve implements Strategy.
func (BranchAndBound) Solve(ctx context.Context, p *Problem) (*Assignment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := ctxError(ctx); err != nil {
		return nil, err
	}

	e := newEngine(ctx, p)
	e.seed(p)

	e.search(0, 0, 0, 0)
	if e.abortErr != nil {
		return nil, e.abortErr
	}
	if !e.found {
		return nil, ErrInfeasible
	}

	selected := make([]bool, e.n)
	for k, on := range e.best {
		if on {
			selected[e.order[k]] = true
		}
	}
	return &Assignment{
		Selected:  selected,
		Objective: p.Value(selected),
		Nodes:     e.nodes,
	}, nil
}

func newEngine(ctx context.Context, p *Problem) *bbEngine {
	n := p.Size()
	e := &bbEngine{
		ctx:      ctx,
		n:        n,
		budget:   p.Budget,
		integral: p.Integral,
		groups:   p.Groups,
		hasFloor: p.Floor != nil,
		floorMin: p.FloorMin,
		hasCap:   p.Capped != nil,
		cap:      p.Cap,
	}
	if dl, ok := ctx.Deadline(); ok {
		e.useDeadline = true
		e.deadline = dl
	}
	if e.hasFloor {
		e.floorMin = p.FloorMin - floorSlack(p.FloorMin)
	}

	e.buildOrder(p)
	e.precompute()
	if spendObjective(p) {
		e.buildReach()
	}

	e.x = make([]bool, n)
	e.best = make([]bool, n)
	e.covered = make([]int, e.groups)
	e.uncovered = e.groups
	return e
}

// density returns value per unit of price; free items come first.
func density(value float64, price int64) float64 {
	if price == 0 {
		return math.Inf(1)
	}
	return value / float64(price)
}

func (e *bbEngine) buildOrder(p *Problem) {
	n := e.n
	objD := make([]float64, n)
	floorD := make([]float64, n)
	for i := 0; i < n; i++ {
		objD[i] = density(p.Objective[i], p.Price[i])
		if p.Floor != nil {
			floorD[i] = density(p.Floor[i], p.Price[i])
		}
	}

	e.order = make([]int, n)
	for i := range e.order {
		e.order[i] = i
	}
	sort.SliceStable(e.order, func(a, b int) bool {
		ia, ib := e.order[a], e.order[b]
		if objD[ia] != objD[ib] {
			return objD[ia] > objD[ib]
		}
		if floorD[ia] != floorD[ib] {
			return floorD[ia] > floorD[ib]
		}
		return ia < ib
	})

	e.price = make([]int64, n)
	e.obj = make([]float64, n)
	e.floor = make([]float64, n)
	e.group = make([]int, n)
	e.capped = make([]bool, n)
	for k, i := range e.order {
		e.price[k] = p.Price[i]
		e.obj[k] = p.Objective[i]
		if p.Floor != nil {
			e.floor[k] = p.Floor[i]
		}
		e.group[k] = -1
		if p.Groups > 0 {
			e.group[k] = p.Group[i]
		}
		if p.Capped != nil {
			e.capped[k] = p.Capped[i]
		}
	}

	// The floor bound may scan in branching order only if, among priced
	// items, the order is non-increasing in floor density as well.
	e.floorOrdered = e.hasFloor
	prev := math.Inf(1)
	for k := 0; k < n && e.floorOrdered; k++ {
		fd := density(e.floor[k], e.price[k])
		if fd > prev {
			e.floorOrdered = false
		}
		prev = fd
	}
}

func (e *bbEngine) precompute() {
	n := e.n
	e.suffixCover = make([][]int64, e.groups)
	for g := 0; g < e.groups; g++ {
		row := make([]int64, n+1)
		row[n] = noCover
		for k := n - 1; k >= 0; k-- {
			row[k] = row[k+1]
			if e.group[k] == g && e.price[k] < row[k] {
				row[k] = e.price[k]
			}
		}
		e.suffixCover[g] = row
	}

	e.suffixFloor = make([]float64, n+1)
	for k := n - 1; k >= 0; k-- {
		e.suffixFloor[k] = e.suffixFloor[k+1] + e.floor[k]
	}
}

// spendObjective reports whether every objective coefficient equals the
// item's price.
func spendObjective(p *Problem) bool {
	if !p.Integral {
		return false
	}
	for i := range p.Price {
		if p.Objective[i] != float64(p.Price[i]) {
			return false
		}
	}
	return true
}

func (e *bbEngine) buildReach() {
	if e.budget/64+1 > reachWordLimit/int64(e.n+1) {
		return
	}
	words := int(e.budget/64) + 1
	e.reach = make([][]uint64, e.n+1)
	e.reach[e.n] = make([]uint64, words)
	e.reach[e.n][0] = 1
	for k := e.n - 1; k >= 0; k-- {
		next := e.reach[k+1]
		p := e.price[k]
		if p == 0 || p > e.budget {
			e.reach[k] = next
			continue
		}
		row := make([]uint64, words)
		shiftOr(row, next, int(p))
		e.reach[k] = row
	}
}

// shiftOr sets dst to src | src<<shift, treating both as little-endian
// bitsets of equal length.
func shiftOr(dst, src []uint64, shift int) {
	ws, bs := shift/64, uint(shift%64)
	for i := len(dst) - 1; i >= 0; i-- {
		v := src[i]
		if j := i - ws; j >= 0 {
			v |= src[j] << bs
			if bs > 0 && j > 0 {
				v |= src[j-1] >> (64 - bs)
			}
		}
		dst[i] = v
	}
}

// maxReachable returns the largest spend <= limit reachable by positions
// >= k. Zero is always reachable.
func (e *bbEngine) maxReachable(k int, limit int64) int64 {
	row := e.reach[k]
	w := int(limit / 64)
	if w >= len(row) {
		w = len(row) - 1
		limit = int64(w*64 + 63)
	}
	word := row[w]
	if b := uint(limit % 64); b < 63 {
		word &= (uint64(1) << (b + 1)) - 1
	}
	for {
		if word != 0 {
			return int64(w*64 + bits.Len64(word) - 1)
		}
		w--
		if w < 0 {
			return 0
		}
		word = row[w]
	}
}

// seed installs p.Seed as the incumbent when it is feasible.
func (e *bbEngine) seed(p *Problem) {
	if p.Seed == nil || !p.Feasible(p.Seed) {
		return
	}
	for k, i := range e.order {
		e.best[k] = p.Seed[i]
	}
	e.bestObj = p.Value(p.Seed)
	e.found = true
}

// deadlineCheck polls the deadline and context every 4096 nodes.
func (e *bbEngine) deadlineCheck() bool {
	e.steps++
	if (e.steps & deadlineMask) != 0 {
		return false
	}
	if err := ctxError(e.ctx); err != nil {
		e.abortErr = err
		return true
	}
	if e.useDeadline && time.Now().After(e.deadline) {
		e.abortErr = ErrSolverTimeout
		return true
	}
	return false
}

func ctxError(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrSolverTimeout
	default:
		return fmt.Errorf("%w: %w", errAborted, err)
	}
}

func (e *bbEngine) search(k int, used int64, cur, curFloor float64) {
	if e.abortErr != nil {
		return
	}
	e.nodes++
	if e.deadlineCheck() {
		return
	}

	if e.uncovered == 0 && (!e.hasFloor || curFloor >= e.floorMin) {
		e.offer(cur)
	}
	if k == e.n {
		return
	}

	remaining := e.budget - used
	if !e.coverable(k, remaining) {
		return
	}
	if e.hasFloor && curFloor+e.floorBound(k, remaining) < e.floorMin {
		return
	}
	if e.found && e.reach != nil && !e.improves(cur+float64(e.maxReachable(k, remaining))) {
		return
	}
	if e.found && !e.improves(cur+e.objectiveBound(k, remaining)) {
		return
	}

	if e.price[k] <= remaining && (!e.capped[k] || e.capUsed < e.cap) {
		e.take(k)
		e.search(k+1, used+e.price[k], cur+e.obj[k], curFloor+e.floor[k])
		e.drop(k)
	}
	e.search(k+1, used, cur, curFloor)
}

func (e *bbEngine) take(k int) {
	e.x[k] = true
	if g := e.group[k]; g >= 0 {
		if e.covered[g] == 0 {
			e.uncovered--
		}
		e.covered[g]++
	}
	if e.capped[k] {
		e.capUsed++
	}
}

func (e *bbEngine) drop(k int) {
	e.x[k] = false
	if g := e.group[k]; g >= 0 {
		e.covered[g]--
		if e.covered[g] == 0 {
			e.uncovered++
		}
	}
	if e.capped[k] {
		e.capUsed--
	}
}

// offer records the current selection if it beats the incumbent.
func (e *bbEngine) offer(cur float64) {
	if e.found && !e.improves(cur) {
		return
	}
	copy(e.best, e.x)
	e.bestObj = cur
	e.found = true
}

// improves reports whether an objective value (or bound) beats the incumbent.
func (e *bbEngine) improves(v float64) bool {
	if e.integral {
		return math.Floor(v+1e-9) > e.bestObj+0.5
	}
	return v > e.bestObj+tieTolerance
}

// coverable checks that every uncovered group can still be covered within
// the remaining budget. Groups are disjoint, so the cheapest cover is the sum
// of the per-group minima.
func (e *bbEngine) coverable(k int, remaining int64) bool {
	if e.uncovered == 0 {
		return true
	}
	var need int64
	for g := 0; g < e.groups; g++ {
		if e.covered[g] > 0 {
			continue
		}
		m := e.suffixCover[g][k]
		if m == noCover {
			return false
		}
		need += m
		if need > remaining {
			return false
		}
	}
	return true
}

// objectiveBound is the fractional knapsack optimum over positions >= k.
func (e *bbEngine) objectiveBound(k int, remaining int64) float64 {
	var bound float64
	for j := k; j < e.n; j++ {
		if e.obj[j] <= 0 || (e.capped[j] && e.capUsed >= e.cap) {
			continue
		}
		if e.price[j] <= remaining {
			remaining -= e.price[j]
			bound += e.obj[j]
			continue
		}
		bound += e.obj[j] * float64(remaining) / float64(e.price[j])
		break
	}
	return bound
}

// floorBound is an upper bound on the floor contribution of positions >= k.
func (e *bbEngine) floorBound(k int, remaining int64) float64 {
	if !e.floorOrdered {
		return e.suffixFloor[k]
	}
	var bound float64
	for j := k; j < e.n; j++ {
		if e.floor[j] <= 0 || (e.capped[j] && e.capUsed >= e.cap) {
			continue
		}
		if e.price[j] <= remaining {
			remaining -= e.price[j]
			bound += e.floor[j]
			continue
		}
		bound += e.floor[j] * float64(remaining) / float64(e.price[j])
		break
	}
	return bound
}
