package skills

import "sort"

// ChainPlan is the result of resolving a primary skill's unmet consumes
// against the skills index.
type ChainPlan struct {
	Chain            []string // prerequisites in execution order, then primary.name
	Prerequisites    []string
	UnresolvedConsumes []string
}

// PlanChain resolves producers for every output the primary consumes that
// availableOutputs does not already satisfy.
func PlanChain(primary Contract, index []Contract, availableOutputs map[string]bool) ChainPlan {
	byName := make(map[string]Contract, len(index))
	for _, c := range index {
		byName[c.Name] = c
	}
	composableWith := toSet(primary.ComposableWith)

	var prerequisites []string
	var unresolved []string
	seen := map[string]bool{}

	for _, consumed := range primary.Consumes {
		if availableOutputs[consumed] {
			continue
		}
		producer, ok := selectProducer(consumed, index, byName, primary, composableWith)
		if !ok {
			unresolved = append(unresolved, consumed)
			continue
		}
		if !seen[producer.Name] {
			prerequisites = append(prerequisites, producer.Name)
			seen[producer.Name] = true
		}
	}

	chain := append(append([]string{}, prerequisites...), primary.Name)
	return ChainPlan{Chain: chain, Prerequisites: prerequisites, UnresolvedConsumes: unresolved}
}

// selectProducer picks, among skills that list consumed in their outputs,
// the one the producer-priority rules favor.
func selectProducer(consumed string, index []Contract, byName map[string]Contract, primary Contract, composableWith map[string]bool) (Contract, bool) {
	var candidates []Contract
	for _, c := range index {
		if c.Name == primary.Name {
			continue
		}
		for _, out := range c.Outputs {
			if out == consumed {
				candidates = append(candidates, c)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return Contract{}, false
	}

	tier := func(c Contract) int {
		if composableWith[c.Name] {
			return 0 // primary explicitly lists this producer
		}
		for _, w := range c.ComposableWith {
			if w == primary.Name {
				return 1 // producer lists the primary
			}
		}
		return 2
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ti, tj := tier(candidates[i]), tier(candidates[j])
		if ti != tj {
			return ti < tj
		}
		ci, cj := costRank[candidates[i].CostHint], costRank[candidates[j].CostHint]
		if ci != cj {
			return ci < cj
		}
		si, sj := stabilityRank[candidates[i].Stability], stabilityRank[candidates[j].Stability]
		if si != sj {
			return si < sj
		}
		return candidates[i].Name < candidates[j].Name
	})

	return candidates[0], true
}
