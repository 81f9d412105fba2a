// Package agents implements the four pricing specialists consulted by the
// orchestrator: policy bounds, demand elasticity, win probability and the
// explanation writer.
package agents

// Agent names, as reported in logs and the version endpoint.
const (
	PolicyAgentName      = "RulesAgent"
	ElasticityAgentName  = "ElasticityAgent"
	WinRateAgentName     = "WinRateAgent"
	ExplanationAgentName = "ExplainerAgent"
)

// Agent is implemented by exactly the four agents in this package.
type Agent interface {
	Name() string
	sealed()
}

// Names lists the agent set in pipeline order.
func Names(set ...Agent) []string {
	names := make([]string, 0, len(set))
	for _, a := range set {
		names = append(names, a.Name())
	}
	return names
}
