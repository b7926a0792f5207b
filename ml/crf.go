package ml

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"sort"
)

// CRF is a linear-chain conditional random field used for inference only:
// decoding runs a Viterbi forward pass and an A* backtrace over the lattice.
// Models are trained offline and shipped as JSON.
type CRF struct {
	Features       map[string]int      `json:"features"`
	States         []string            `json:"states"`
	InitialWeights []float64           `json:"initial_weights"`
	FinalWeights   []float64           `json:"final_weights"`
	Transitions    [][]*TransitionData `json:"transitions"`
}

type TransitionData struct {
	Weights       []float64 `json:"weights"`
	DefaultWeight float64   `json:"default_weight"`
}

type ViterbiNode struct {
	InputPosition int
	OutputIndex   int
	StateID       int
	Delta         float64
	OutputState   int
}

type AStarNode struct {
	Parent   *AStarNode
	Viterbi  *ViterbiNode
	Cost     float64
	Priority float64
}

func (crf *CRF) DotProduct(transition *TransitionData, featureIdxVector []int) float64 {
	sort.Ints(featureIdxVector)
	transitionWeights := transition.Weights
	ret := 0.0
	for _, fIdx := range featureIdxVector {
		ret += transitionWeights[fIdx]
	}
	return ret
}

// ToFeatureIdxVector maps the observed features onto the model's feature
// index space, dropping anything the model has never seen.
func (crf *CRF) ToFeatureIdxVector(features []Feature) []int {
	set := make(map[int]bool)
	for _, feat := range features {
		fIdx, isOk := crf.Features[feat.String()]
		if isOk {
			set[fIdx] = true
		}
	}

	result := make([]int, len(set))
	i := 0
	for k := range set {
		result[i] = k
		i++
	}
	return result
}

func (crf *CRF) AStarSearch(features [][]Feature, viterbiNodes [][]*ViterbiNode) *AStarNode {
	if len(viterbiNodes) == 0 {
		return nil
	}

	var q []*AStarNode

	finalLevel := viterbiNodes[len(viterbiNodes)-1]
	for i := 0; i < len(finalLevel); i++ {
		viterbiNode := finalLevel[i]
		q = append(q, &AStarNode{
			Viterbi:  viterbiNode,
			Priority: -viterbiNode.Delta,
		})
	}

	alreadyProcessed := make(map[*AStarNode]bool)

	for len(q) > 0 {
		var minCostNode *AStarNode
		for _, node := range q {
			if isOk := alreadyProcessed[node]; isOk {
				continue
			}
			if minCostNode == nil || minCostNode.Priority > node.Priority {
				minCostNode = node
			}
		}

		if minCostNode == nil || minCostNode.Viterbi.InputPosition == 0 {
			return minCostNode
		}

		alreadyProcessed[minCostNode] = true

		vNodeLevelID := minCostNode.Viterbi.InputPosition - 1
		fIdxVector := crf.ToFeatureIdxVector(features[vNodeLevelID])

		for stateID := 0; stateID < len(crf.States); stateID++ {
			if stateID >= len(viterbiNodes[vNodeLevelID]) {
				continue
			}
			transition := crf.Transitions[stateID][minCostNode.Viterbi.StateID]
			dp := crf.DotProduct(transition, fIdxVector)
			transCost := dp + transition.DefaultWeight

			aStarNode := &AStarNode{
				Viterbi: viterbiNodes[vNodeLevelID][stateID],
				Cost:    -transCost + minCostNode.Cost,
				Parent:  minCostNode,
			}
			aStarNode.Priority = -aStarNode.Viterbi.Delta + aStarNode.Cost
			q = append(q, aStarNode)
		}
	}

	return nil
}

func (crf *CRF) DecodeViterbi(features [][]Feature) [][]*ViterbiNode {
	impossibleWeight := math.Inf(-1)

	nodesCnt := len(features) + 1
	nodes := make([][]*ViterbiNode, nodesCnt)

	// init weights
	nodes[0] = make([]*ViterbiNode, 0, len(crf.States))
	for i := 0; i < len(crf.States); i++ {
		if crf.InitialWeights[i] > impossibleWeight {
			vNode := ViterbiNode{
				Delta:   crf.InitialWeights[i],
				StateID: i,
			}
			nodes[0] = append(nodes[0], &vNode)
		}
	}

	for obsIdx, feats := range features {
		fIdxVector := crf.ToFeatureIdxVector(feats)
		for stateID := 0; stateID < len(crf.States); stateID++ {
			if len(nodes[obsIdx]) <= stateID || nodes[obsIdx][stateID].Delta == impossibleWeight {
				continue
			}

			transitions := crf.Transitions[stateID]

			for transID, transition := range transitions {
				dp := crf.DotProduct(transition, fIdxVector)
				transWeight := dp + transition.DefaultWeight
				weight := nodes[obsIdx][stateID].Delta + transWeight
				if obsIdx == len(features)-1 {
					weight += crf.FinalWeights[transID]
				}

				var vNode *ViterbiNode
				if nodes[obsIdx+1] != nil && transID < len(nodes[obsIdx+1]) {
					vNode = nodes[obsIdx+1][transID]
				} else {
					vNode = &ViterbiNode{
						StateID:       transID,
						InputPosition: obsIdx + 1,
						OutputIndex:   transID,
						Delta:         impossibleWeight,
					}

					nodes[obsIdx+1] = append(nodes[obsIdx+1], vNode)
				}

				if weight > vNode.Delta {
					vNode.Delta = weight
				}
			}
		}
	}

	return nodes
}

// Predict returns the most likely state label per input position.
func (crf *CRF) Predict(features [][]Feature) []string {
	viterbiNodes := crf.DecodeViterbi(features)
	result := make([]string, len(features))

	node := crf.AStarSearch(features, viterbiNodes)
	if node != nil {
		node = node.Parent
	}
	i := 0
	for node != nil {
		result[i] = crf.States[node.Viterbi.OutputIndex]
		i++
		node = node.Parent
	}
	return result
}

func LoadCRFFromFile(modelPath string) (*CRF, error) {
	buf, err := ioutil.ReadFile(modelPath)
	if err != nil {
		return nil, err
	}

	var m CRF
	err = json.Unmarshal(buf, &m)
	if err != nil {
		return nil, err
	}

	// fill absent initial weights to Infinity values
	if len(m.InitialWeights) < len(m.States) {
		for i := 0; i < len(m.States)-len(m.InitialWeights); i++ {
			m.InitialWeights = append(m.InitialWeights, math.Inf(-1))
		}
	}

	return &m, nil
}
