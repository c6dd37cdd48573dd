package pipeline

import "context"

type StageName string

const (
	StageResearch  StageName = "Research"
	StageAccount   StageName = "Account"
	StageRecommend StageName = "Recommend"
	StageSummarize StageName = "Summarize"
)

// Stage is one step of the analysis. Run reads fields written by earlier
// stages and populates its own output on pc.
type Stage interface {
	Name() StageName
	Run(ctx context.Context, pc *PipelineContext) error
}

// Role is static descriptive metadata for a stage.
type Role struct {
	Title string
	Goal  string
}

var roles = map[StageName]Role{
	StageResearch: {
		Title: "Financial Researcher",
		Goal:  "Gather current market data and recent news for a stock ticker.",
	},
	StageAccount: {
		Title: "Accountant",
		Goal:  "Derive valuation and price-movement ratios from the researched figures.",
	},
	StageRecommend: {
		Title: "Investment Recommender",
		Goal:  "Decide whether the stock is a Buy, Hold or Sell and explain the reasoning.",
	},
	StageSummarize: {
		Title: "Financial Blogger",
		Goal:  "Condense the recommendation into a short readable summary.",
	},
}

func RoleOf(name StageName) Role {
	return roles[name]
}

// RecommenderInstruction is the system instruction handed to the text
// generation backend.
func RecommenderInstruction() string {
	r := RoleOf(StageRecommend)
	return "You are an " + r.Title + ". " + r.Goal +
		" Begin your answer with a line of the form 'RECOMMENDATION: <Buy|Hold|Sell>' followed by your reasoning."
}
