package planner

import (
	"context"
	"math"
	"math/rand"

	"fleet-route-planner/internal/domain"
)

// NeuralConfig tunes the policy-gradient strategy. Zero fields take
// the defaults below.
type NeuralConfig struct {
	HiddenDim    int
	Episodes     int
	LearningRate float64
	Discount     float64
}

func (c NeuralConfig) withDefaults() NeuralConfig {
	if c.HiddenDim <= 0 {
		c.HiddenDim = 48
	}
	if c.Episodes <= 0 {
		c.Episodes = 250
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.012
	}
	if c.Discount <= 0 {
		c.Discount = 0.98
	}
	return c
}

// neuralAgent learns a per-vehicle delivery policy with REINFORCE: a
// two-layer tanh network maps the rollout state (remaining capacity,
// position, per-candidate features) to a distribution over "deliver
// candidate i" and "return to depot" actions, trained against
// profit-shaped rewards, then rolled out greedily to produce the
// route. An invalid rollout falls back to nearest-neighbor + 2-opt
// over the same packages.
//
// Candidates per vehicle are preselected by payment density exactly
// like the greedy packer, so the network only learns stop order and
// early returns, not admission. Deterministic for a fixed Request
// seed.
type neuralAgent struct {
	opts Options
}

func (a *neuralAgent) Name() string { return AgentNeuralPolicyGradient }

func (a *neuralAgent) PlanRoutes(ctx context.Context, req Request) (*Plan, error) {
	pkgs, fleet, plan := prepare(a.Name(), req)

	if len(fleet) == 0 {
		if len(pkgs) > 0 {
			plan.Unassigned = append(plan.Unassigned, pkgs...)
			plan.warnf("no usable vehicles: %d packages unassigned", len(pkgs))
		}
		return plan, nil
	}
	if len(pkgs) == 0 {
		return plan, nil
	}

	cfg := a.opts.Neural.withDefaults()
	d := req.distancer()

	seed := req.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	sortByCostEfficiency(fleet)

	remaining := pkgs
	for _, v := range fleet {
		if len(remaining) == 0 {
			break
		}

		cands, rest := packVehicle(v, remaining)
		if len(cands) == 0 {
			continue
		}

		delivered, leftover, err := a.planVehicle(ctx, v, cands, req.Map, d, cfg, rng, plan)
		if err != nil {
			return nil, err
		}

		if len(delivered) > 0 {
			admitRoute(plan, domain.NewRoute(v, req.Map.Depot, delivered), d)
		}

		// Candidates the policy chose not to deliver rejoin the pool
		// for later vehicles.
		remaining = append(leftover, rest...)
	}

	if len(remaining) > 0 {
		plan.Unassigned = append(plan.Unassigned, remaining...)
		plan.warnf("fleet capacity exhausted: %d packages unassigned", len(remaining))
	}

	return plan, nil
}

// planVehicle trains a fresh policy for one vehicle's candidate set
// and returns the greedy-rollout delivery order plus the candidates it
// left behind.
func (a *neuralAgent) planVehicle(
	ctx context.Context,
	v *domain.Vehicle,
	cands []*domain.Package,
	m domain.Map,
	d domain.Distancer,
	cfg NeuralConfig,
	rng *rand.Rand,
	plan *Plan,
) (delivered, leftover []*domain.Package, err error) {
	env := newRolloutEnv(v, cands, m, d)
	net := newPolicyNet(env.stateDim(), cfg.HiddenDim, len(cands)+1, rng)

	for ep := 0; ep < cfg.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		steps := env.runEpisode(net, rng)
		returns := discountedReturns(steps, cfg.Discount)
		normalizeReturns(returns)
		net.update(steps, returns, cfg.LearningRate)
	}

	order := env.greedyRollout(net)

	route := domain.NewRoute(v, m.Depot, order)
	if err := route.Validate(d); err != nil {
		// The learned order broke a constraint; fall back to the
		// deterministic heuristic over the same packages.
		plan.warnf("vehicle %s: policy rollout invalid (%v), using nearest-neighbor fallback", v.ID, err)
		order = orderPackages(order, m.Depot, d)
		order = improvePackages(order, m.Depot, d, a.opts.twoOptMaxIter())
	}

	deliveredSet := make(map[string]struct{}, len(order))
	for _, p := range order {
		deliveredSet[p.ID] = struct{}{}
	}
	for _, p := range cands {
		if _, ok := deliveredSet[p.ID]; !ok {
			leftover = append(leftover, p)
		}
	}

	return order, leftover, nil
}

// rolloutEnv is the per-vehicle delivery episode: the policy picks one
// remaining candidate to deliver per step, or returns to the depot.
type rolloutEnv struct {
	vehicle *domain.Vehicle
	cands   []*domain.Package
	depot   domain.Point
	d       domain.Distancer

	normW   float64
	normH   float64
	normPay float64

	delivered []bool
	order     []int
	used      float64
	cur       domain.Point
	done      bool
}

func newRolloutEnv(v *domain.Vehicle, cands []*domain.Package, m domain.Map, d domain.Distancer) *rolloutEnv {
	env := &rolloutEnv{
		vehicle: v,
		cands:   cands,
		depot:   m.Depot,
		d:       d,
		normW:   m.Width,
		normH:   m.Height,
		normPay: 1,
	}
	if env.normW <= 0 {
		env.normW = 1
	}
	if env.normH <= 0 {
		env.normH = 1
	}
	for _, p := range cands {
		if pay := p.Revenue(); pay > env.normPay {
			env.normPay = pay
		}
	}
	env.reset()
	return env
}

func (env *rolloutEnv) reset() {
	env.delivered = make([]bool, len(env.cands))
	env.order = env.order[:0]
	env.used = 0
	env.cur = env.depot
	env.done = false
}

// stateDim is 3 vehicle features plus 4 per candidate.
func (env *rolloutEnv) stateDim() int { return 3 + 4*len(env.cands) }

func (env *rolloutEnv) state() []float64 {
	capacity := env.vehicle.Type.CapacityM3
	s := make([]float64, 0, env.stateDim())
	s = append(s,
		(capacity-env.used)/capacity,
		env.cur.X/env.normW,
		env.cur.Y/env.normH,
	)
	for i, p := range env.cands {
		if env.delivered[i] {
			s = append(s, 0, 0, 0, 0)
			continue
		}
		s = append(s,
			p.Destination.X/env.normW,
			p.Destination.Y/env.normH,
			p.VolumeM3/capacity,
			p.Revenue()/env.normPay,
		)
	}
	return s
}

// validActions masks the action head: one slot per undelivered
// candidate that still fits, plus the always-legal return action.
func (env *rolloutEnv) validActions() []bool {
	valid := make([]bool, len(env.cands)+1)
	for i, p := range env.cands {
		valid[i] = !env.delivered[i] && env.vehicle.CanCarry(p.VolumeM3, env.used)
	}
	valid[len(env.cands)] = true
	return valid
}

// step applies an action and returns its reward. Delivering earns the
// package revenue minus travel cost; returning (chosen or forced when
// nothing fits) charges the leg back to the depot.
func (env *rolloutEnv) step(action int) float64 {
	rate := env.vehicle.Type.CostPerKm

	if action < len(env.cands) {
		p := env.cands[action]
		reward := p.Revenue() - env.d.Distance(env.cur, p.Destination)*rate
		env.delivered[action] = true
		env.order = append(env.order, action)
		env.used += p.VolumeM3
		env.cur = p.Destination
		return reward
	}

	env.done = true
	return -env.d.Distance(env.cur, env.depot) * rate
}

type episodeStep struct {
	state  []float64
	hidden []float64
	probs  []float64
	action int
	reward float64
}

// runEpisode samples one trajectory from the current policy.
func (env *rolloutEnv) runEpisode(net *policyNet, rng *rand.Rand) []episodeStep {
	env.reset()

	var steps []episodeStep
	for !env.done {
		state := env.state()
		hidden, logits := net.forward(state)
		probs := maskedSoftmax(logits, env.validActions())
		action := sampleAction(probs, rng)
		reward := env.step(action)

		steps = append(steps, episodeStep{
			state:  state,
			hidden: hidden,
			probs:  probs,
			action: action,
			reward: reward,
		})
	}

	return steps
}

// greedyRollout follows the trained policy's argmax action until the
// episode ends and returns the delivered packages in visit order.
func (env *rolloutEnv) greedyRollout(net *policyNet) []*domain.Package {
	env.reset()

	for !env.done {
		_, logits := net.forward(env.state())
		probs := maskedSoftmax(logits, env.validActions())

		best, bestP := len(env.cands), -1.0
		for i, p := range probs {
			if p > bestP {
				best, bestP = i, p
			}
		}
		env.step(best)
	}

	out := make([]*domain.Package, 0, len(env.order))
	for _, i := range env.order {
		out = append(out, env.cands[i])
	}
	return out
}

func discountedReturns(steps []episodeStep, discount float64) []float64 {
	returns := make([]float64, len(steps))
	var g float64
	for i := len(steps) - 1; i >= 0; i-- {
		g = steps[i].reward + discount*g
		returns[i] = g
	}
	return returns
}

// normalizeReturns centers and scales returns, which keeps update
// magnitudes stable across reward scales.
func normalizeReturns(returns []float64) {
	if len(returns) < 2 {
		return
	}

	var mean float64
	for _, g := range returns {
		mean += g
	}
	mean /= float64(len(returns))

	var variance float64
	for _, g := range returns {
		diff := g - mean
		variance += diff * diff
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std < 1e-8 {
		std = 1e-8
	}

	for i := range returns {
		returns[i] = (returns[i] - mean) / std
	}
}

// policyNet is a two-layer tanh network over flat state vectors.
type policyNet struct {
	in     int
	hidden int
	out    int

	w1 [][]float64
	b1 []float64
	w2 [][]float64
	b2 []float64
}

func newPolicyNet(in, hidden, out int, rng *rand.Rand) *policyNet {
	net := &policyNet{
		in:     in,
		hidden: hidden,
		out:    out,
		w1:     make([][]float64, hidden),
		b1:     make([]float64, hidden),
		w2:     make([][]float64, out),
		b2:     make([]float64, out),
	}
	for j := range net.w1 {
		net.w1[j] = make([]float64, in)
		for i := range net.w1[j] {
			net.w1[j][i] = rng.NormFloat64() * 0.1
		}
	}
	for k := range net.w2 {
		net.w2[k] = make([]float64, hidden)
		for j := range net.w2[k] {
			net.w2[k][j] = rng.NormFloat64() * 0.1
		}
	}
	return net
}

func (n *policyNet) forward(x []float64) (hidden, logits []float64) {
	hidden = make([]float64, n.hidden)
	for j := 0; j < n.hidden; j++ {
		sum := n.b1[j]
		row := n.w1[j]
		for i, xi := range x {
			sum += row[i] * xi
		}
		hidden[j] = math.Tanh(sum)
	}

	logits = make([]float64, n.out)
	for k := 0; k < n.out; k++ {
		sum := n.b2[k]
		row := n.w2[k]
		for j, hj := range hidden {
			sum += row[j] * hj
		}
		logits[k] = sum
	}

	return hidden, logits
}

// update applies one REINFORCE gradient-ascent step per episode,
// accumulated over all its steps.
func (n *policyNet) update(steps []episodeStep, returns []float64, lr float64) {
	gw1 := make([][]float64, n.hidden)
	gb1 := make([]float64, n.hidden)
	for j := range gw1 {
		gw1[j] = make([]float64, n.in)
	}
	gw2 := make([][]float64, n.out)
	gb2 := make([]float64, n.out)
	for k := range gw2 {
		gw2[k] = make([]float64, n.hidden)
	}

	for si, step := range steps {
		g := returns[si]

		// d log pi / d logits = onehot(action) - probs; masked-out
		// actions have zero probability and zero gradient.
		dlogits := make([]float64, n.out)
		for k := range dlogits {
			dlogits[k] = -step.probs[k]
		}
		dlogits[step.action] += 1

		dhidden := make([]float64, n.hidden)
		for k := 0; k < n.out; k++ {
			gk := g * dlogits[k]
			gb2[k] += gk
			row := n.w2[k]
			grow := gw2[k]
			for j, hj := range step.hidden {
				grow[j] += gk * hj
				dhidden[j] += gk * row[j]
			}
		}

		for j := 0; j < n.hidden; j++ {
			// tanh' = 1 - h^2
			dpre := dhidden[j] * (1 - step.hidden[j]*step.hidden[j])
			gb1[j] += dpre
			grow := gw1[j]
			for i, xi := range step.state {
				grow[i] += dpre * xi
			}
		}
	}

	for j := 0; j < n.hidden; j++ {
		n.b1[j] += lr * gb1[j]
		for i := 0; i < n.in; i++ {
			n.w1[j][i] += lr * gw1[j][i]
		}
	}
	for k := 0; k < n.out; k++ {
		n.b2[k] += lr * gb2[k]
		for j := 0; j < n.hidden; j++ {
			n.w2[k][j] += lr * gw2[k][j]
		}
	}
}

// maskedSoftmax is a numerically stable softmax over valid actions
// only; invalid actions get probability zero.
func maskedSoftmax(logits []float64, valid []bool) []float64 {
	maxLogit := math.Inf(-1)
	for i, l := range logits {
		if valid[i] && l > maxLogit {
			maxLogit = l
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		if !valid[i] {
			continue
		}
		e := math.Exp(l - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func sampleAction(probs []float64, rng *rand.Rand) int {
	r := rng.Float64()
	var cum float64
	last := 0
	for i, p := range probs {
		if p == 0 {
			continue
		}
		cum += p
		last = i
		if r < cum {
			return i
		}
	}
	// Float underflow can leave cum slightly below 1.
	return last
}
